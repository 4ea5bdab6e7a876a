// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth derives voter identities and checks admin keys and sessions.

# Voter Identity

Anonymous voters are keyed by a salted HMAC of their client IP:

	id := auth.VoterIdentity(ip, salt) // "ip:" + 16 hex chars

The raw IP is never stored.

# Admin Key

Admin routes compare the X-Admin-Key header against the configured key in
constant time:

	err := auth.ValidateAdminKey(given, cfg.AdminKey)

An empty configured key disables the admin routes.

# Sessions

When login is required, voters present an HS256 JWT:

	token, err := auth.IssueSession(userID, secret, 24*time.Hour)
	claims, err := auth.ParseSession(token, secret)

ParseSession only accepts HS256 and requires a subject and a valid expiry.
*/
package auth
