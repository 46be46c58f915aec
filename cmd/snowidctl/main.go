// Package main provides an offline CLI for snowid.
// Usage: snowidctl decode <id>
//        snowidctl inspect <id>
//        snowidctl next --count 10
//        snowidctl token --sub orders-api --ttl 24h
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"snowid/internal/config"
	"snowid/internal/core/snowflake"
	"snowid/internal/domain/auth"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err := run(os.Stdout, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, command string, args []string) error {
	switch command {
	case "decode":
		return decode(out, args)
	case "inspect":
		return inspect(out, args)
	case "next":
		return next(out, args)
	case "token":
		return token(out, args)
	case "help", "--help", "-h":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `snowid CLI

Usage:
  snowidctl <command> [options]

Commands:
  decode    Print the Unix millisecond timestamp of an ID
  inspect   Print timestamp, node and sequence of an ID
  next      Allocate IDs locally using NODE_ID
  token     Issue a bearer token signed with JWT_SECRET
  help      Show this help

Environment Variables:
  NODE_ID      Node identifier 0-63 used by "next" (default 1)
  JWT_SECRET   Signing secret used by "token" (required for token)
  JWT_ISSUER   Token issuer (default snowid)

Examples:
  snowidctl decode 262148096
  snowidctl inspect 262148096
  snowidctl next --count 5
  snowidctl token --sub orders-api --ttl 24h`)
}

func decode(out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: snowidctl decode <id>")
	}
	id, err := snowflake.ParseID(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, snowflake.DecodeTimestamp(id))
	return nil
}

func inspect(out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: snowidctl inspect <id>")
	}
	id, err := snowflake.ParseID(args[0])
	if err != nil {
		return err
	}
	parts := snowflake.Decompose(id)
	fmt.Fprintf(out, "id:        %s\n", id)
	fmt.Fprintf(out, "timestamp: %d (%s)\n", parts.Timestamp, id.Time().Format(time.RFC3339Nano))
	fmt.Fprintf(out, "node:      %d\n", parts.NodeID)
	fmt.Fprintf(out, "sequence:  %d\n", parts.Sequence)
	return nil
}

func next(out io.Writer, args []string) error {
	count := 1
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--count", "-n":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", args[i])
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid count %q", args[i+1])
			}
			count = n
			i++
		default:
			return fmt.Errorf("unknown option %s", args[i])
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	allocator, err := snowflake.New(cfg.Allocator())
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		id, err := allocator.Allocate()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, id)
	}
	return nil
}

func token(out io.Writer, args []string) error {
	var subject string
	var ttl time.Duration
	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			return fmt.Errorf("%s requires a value", args[i])
		}
		switch args[i] {
		case "--sub":
			subject = args[i+1]
		case "--ttl":
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid ttl: %w", err)
			}
			ttl = d
		default:
			return fmt.Errorf("unknown option %s", args[i])
		}
		i++
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	jwtConfig := auth.DefaultJWTConfig(secret)
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		jwtConfig.Issuer = issuer
	}

	tok, expiresAt, err := auth.NewJWTService(jwtConfig).GenerateToken(subject, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.UTC().Format(time.RFC3339))
	return nil
}
