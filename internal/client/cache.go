package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skeebs10/settlr/internal/models"
)

// cache persists the session credentials and the last known tab (tip
// included) as JSON files, so a guest who reopens the app mid-dinner
// resumes where they left off. A nil directory disables it.
type cache struct {
	dir string
}

func newCache(dir string) *cache {
	return &cache{dir: dir}
}

func (c *cache) enabled() bool {
	return c.dir != ""
}

func (c *cache) saveSession(session *models.Session) error {
	return c.write(fmt.Sprintf("session-%s.json", session.SessionID), session)
}

func (c *cache) loadSession(sessionID string) (*models.Session, error) {
	var session models.Session
	if err := c.read(fmt.Sprintf("session-%s.json", sessionID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *cache) saveTab(tab *models.Tab) error {
	return c.write(fmt.Sprintf("tab-%s.json", tab.ID), tab)
}

func (c *cache) loadTab(tabID string) (*models.Tab, error) {
	var tab models.Tab
	if err := c.read(fmt.Sprintf("tab-%s.json", tabID), &tab); err != nil {
		return nil, err
	}
	return &tab, nil
}

func (c *cache) write(name string, v any) error {
	if !c.enabled() {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func (c *cache) read(name string, v any) error {
	if !c.enabled() {
		return os.ErrNotExist
	}
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
