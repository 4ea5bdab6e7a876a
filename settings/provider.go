// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/fsnotify.v1"
)

// Provider hands out the current Snapshot and swaps it when the
// settings file changes.
type Provider struct {
	path    string
	current atomic.Pointer[Snapshot]
}

// NewStatic returns a provider that always serves snap.
func NewStatic(snap Snapshot) *Provider {
	p := &Provider{}
	s := snap.clone()
	p.current.Store(&s)
	return p
}

// NewProvider loads path once. An empty path serves Default().
func NewProvider(path string) (*Provider, error) {
	if path == "" {
		return NewStatic(Default()), nil
	}
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	p := NewStatic(snap)
	p.path = path
	return p, nil
}

// Current returns a copy of the active snapshot.
func (p *Provider) Current() Snapshot {
	return p.current.Load().clone()
}

// Replace swaps in a new snapshot after validating it.
func (p *Provider) Replace(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	s := snap.clone()
	p.current.Store(&s)
	return nil
}

// Reload re-reads the settings file. On error the previous snapshot stays active.
func (p *Provider) Reload() error {
	if p.path == "" {
		return nil
	}
	snap, err := Load(p.path)
	if err != nil {
		return err
	}
	return p.Replace(snap)
}

// Watch reloads the settings file whenever it changes, until ctx is done.
// The parent directory is watched so that editors replacing the file by
// rename are picked up too.
func (p *Provider) Watch(ctx context.Context) error {
	if p.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}

	target := filepath.Clean(p.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch settings: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := p.Reload(); err != nil {
					slog.Warn("settings reload failed, keeping previous snapshot", "path", p.path, "error", err)
					continue
				}
				slog.Info("settings reloaded", "path", p.path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("settings watcher error", "error", err)
			}
		}
	}()
	return nil
}
