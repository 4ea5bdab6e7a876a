// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line flags and configuration.

# Configuration

BindFlags registers the options on a pflag.FlagSet (the root command's
persistent flags in main), and Resolve fills the rest from the environment:

	cliparse.BindFlags(cmd.PersistentFlags(), &cfg)
	cfg, err := cliparse.Resolve(cfg)

ParseFlags does both for a plain argument list.

# CLI Flags and Environment Variables

	-p, --port           PORT               (default 3318)
	-d, --database-url   DATABASE_URL       (required)
	-t, --database-type  DATABASE_TYPE      sqlite or postgres (default sqlite)
	--settings           PICPOLL_SETTINGS   widget settings YAML
	--store              VOTE_STORE         sql or redis (default sql)
	--redis-addr         REDIS_ADDR         required when --store=redis
	--log-format         LOG_FORMAT         text or json (default text)
	--voter-salt         VOTER_SALT         required to serve
	--admin-key          ADMIN_KEY          admin API disabled when empty
	--session-secret     SESSION_SECRET     sessions disabled when empty

CLI flags take precedence over environment variables.

# Validation

Resolve checks what every command needs. ValidateServe additionally
requires the voter salt, which only the HTTP server uses.
*/
package cliparse
