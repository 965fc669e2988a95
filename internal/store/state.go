package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/mzhao129/facility-notifier/internal/event"
)

// Keys for Telegram bot state. Calendar snapshot keys are derived per
// tracked configuration; see event.Config.SnapshotKey.
const (
	keyLastUpdateID = "telegram_last_update_id"
	keySubscribers  = "telegram_update_subscribers"
)

// State wraps a Store with the typed records the notifier keeps. Values
// are stored as JSON so either backend can be inspected or migrated by
// hand.
type State struct {
	kv Store
}

// NewState wraps kv with typed accessors.
func NewState(kv Store) *State {
	return &State{kv: kv}
}

// Entries returns the last snapshot saved for the given configuration. A
// configuration that has never been saved yields an empty snapshot.
func (s *State) Entries(ctx context.Context, cfg event.Config) (event.Snapshot, error) {
	raw, err := s.kv.Get(ctx, cfg.SnapshotKey())
	if errors.Is(err, ErrNotFound) {
		return event.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	var snap event.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", cfg.SnapshotKey(), err)
	}
	return snap, nil
}

// SaveEntries overwrites the snapshot for the given configuration.
func (s *State) SaveEntries(ctx context.Context, cfg event.Config, snap event.Snapshot) error {
	if snap == nil {
		snap = event.Snapshot{}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot %s: %w", cfg.SnapshotKey(), err)
	}
	return s.kv.Set(ctx, cfg.SnapshotKey(), raw)
}

// LastUpdateID returns the highest Telegram update ID already processed,
// or zero when the bot has never polled.
func (s *State) LastUpdateID(ctx context.Context) (int, error) {
	raw, err := s.kv.Get(ctx, keyLastUpdateID)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var id int
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("decoding %s: %w", keyLastUpdateID, err)
	}
	return id, nil
}

// SaveLastUpdateID records the highest processed Telegram update ID.
func (s *State) SaveLastUpdateID(ctx context.Context, id int) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", keyLastUpdateID, err)
	}
	return s.kv.Set(ctx, keyLastUpdateID, raw)
}

// Subscribers returns the Telegram chats subscribed to updates, oldest
// first.
func (s *State) Subscribers(ctx context.Context) ([]int64, error) {
	raw, err := s.kv.Get(ctx, keySubscribers)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var subs []int64
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", keySubscribers, err)
	}
	return subs, nil
}

// SaveSubscribers overwrites the subscriber list.
func (s *State) SaveSubscribers(ctx context.Context, chatIDs []int64) error {
	if chatIDs == nil {
		chatIDs = []int64{}
	}
	raw, err := json.Marshal(chatIDs)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", keySubscribers, err)
	}
	return s.kv.Set(ctx, keySubscribers, raw)
}

// AddSubscriber records a chat, reporting false when it was already
// subscribed.
func (s *State) AddSubscriber(ctx context.Context, chatID int64) (bool, error) {
	subs, err := s.Subscribers(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(subs, chatID) {
		return false, nil
	}
	return true, s.SaveSubscribers(ctx, append(subs, chatID))
}

// RemoveSubscriber drops a chat, reporting false when it was not
// subscribed.
func (s *State) RemoveSubscriber(ctx context.Context, chatID int64) (bool, error) {
	subs, err := s.Subscribers(ctx)
	if err != nil {
		return false, err
	}
	i := slices.Index(subs, chatID)
	if i < 0 {
		return false, nil
	}
	return true, s.SaveSubscribers(ctx, slices.Delete(subs, i, i+1))
}
