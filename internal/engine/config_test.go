package engine

import (
	"testing"
	"time"

	"github.com/ZeruiLi/FocusOrb/internal/store"
)

func TestLoadConfigDefaults(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	cfg := LoadConfig(s)
	if cfg.PendingDuration != 3*time.Second {
		t.Fatalf("pending = %v, want 3s", cfg.PendingDuration)
	}
	if cfg.AutoMergeWindow != 5*time.Minute {
		t.Fatalf("merge window = %v, want 5m", cfg.AutoMergeWindow)
	}
	if cfg.AutoBreakIdle != 0 {
		t.Fatalf("auto break idle = %v, want disabled", cfg.AutoBreakIdle)
	}
	if cfg.AutoBreakFill != 30*time.Second {
		t.Fatalf("auto break fill = %v, want 30s", cfg.AutoBreakFill)
	}
	if !cfg.EnableReflection {
		t.Fatal("reflection should default on")
	}
}

func TestLoadConfigFromSettings(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.SetSetting(store.SettingPendingDuration, "10")
	s.SetSetting(store.SettingAutoMergeWindow, "2")
	s.SetSetting(store.SettingAutoBreakIdle, "15")
	s.SetSetting(store.SettingAutoBreakFill, "60")
	s.SetSetting(store.SettingEnableReflection, "0")

	cfg := LoadConfig(s)
	if cfg.PendingDuration != 10*time.Second {
		t.Fatalf("pending = %v", cfg.PendingDuration)
	}
	if cfg.AutoMergeWindow != 2*time.Minute {
		t.Fatalf("merge window = %v", cfg.AutoMergeWindow)
	}
	if cfg.AutoBreakIdle != 15*time.Minute {
		t.Fatalf("auto break idle = %v", cfg.AutoBreakIdle)
	}
	if cfg.AutoBreakFill != time.Minute {
		t.Fatalf("auto break fill = %v", cfg.AutoBreakFill)
	}
	if cfg.EnableReflection {
		t.Fatal("reflection should be off")
	}
}

func TestNewNormalizesPendingDuration(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	m := New(s, Config{PendingDuration: -1})
	defer m.Close()
	if m.cfg.PendingDuration != DefaultPendingDuration {
		t.Fatalf("pending = %v, want the default", m.cfg.PendingDuration)
	}
}
