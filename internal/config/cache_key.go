package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionAnswersKey returns the cache key mirroring a session's answer ledger.
// Hash field = global question index, value = selected option label.
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// SessionStartKey returns the cache key for a session's start time (Unix seconds).
func (r *CacheKeyStruct) SessionStartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:started_at", sessionID)
}

// SessionPhaseKey returns the cache key for a session's last observed phase.
func (r *CacheKeyStruct) SessionPhaseKey(sessionID string) string {
	return fmt.Sprintf("session:%s:phase", sessionID)
}

// UserActiveSessionKey returns the cache key for a user's currently active session.
func (r *CacheKeyStruct) UserActiveSessionKey(userID int) string {
	return fmt.Sprintf("user:%d:active_session", userID)
}

var CacheKey = NewCacheKeyStruct()
