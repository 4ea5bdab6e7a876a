// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting is the application core: it validates a vote, writes it to the
ledger and answers with fresh standings.

# Casting a Vote

	standings, err := svc.CastVote(ctx, voting.Ballot{
		ItemID:    42,
		Choice:    1,
		HasChoice: true,
		Country:   "us",
		Regions:   []string{"US", "CA"},
		Voter:     voting.Voter{Identity: id, UserAgent: ua},
	})

Checks run in this order: item id present, login (when the snapshot
requires it), choice present and in [0, len(option_labels)), item exists.
Nothing is written unless all of them pass.

# Errors

Every error returned by the service is a *Error whose Kind is one of
ErrValidation, ErrPermission, ErrUnavailable or ErrNotFound:

	switch {
	case errors.Is(err, voting.ErrValidation):  // 400
	case errors.Is(err, voting.ErrPermission):  // 403, login_required
	case errors.Is(err, voting.ErrNotFound):    // 404
	case errors.Is(err, voting.ErrUnavailable): // 503, caller may retry
	}

Message(err) is safe to show to clients. Storage causes are only logged.

# Regions

ParseRegions sanitizes, de-duplicates and orders requested region codes.
ResolveRegion picks the region a vote is filed under, falling back to the
configured geo header when region_mode is "header".
*/
package voting
