package testing

import (
	"testing"
)

func TestUnitFromEnvironment(t *testing.T) {
	t.Setenv(EnvUnitOnly, "true")
	if !Unit() {
		t.Error("Unit() = false with " + EnvUnitOnly + "=true")
	}
	if Integration() {
		t.Error("Integration() = true in unit mode")
	}
}

func TestUnitFollowsShortFlag(t *testing.T) {
	t.Setenv(EnvUnitOnly, "")
	if Unit() != testing.Short() {
		t.Errorf("Unit() = %v, testing.Short() = %v", Unit(), testing.Short())
	}
}

func TestSkipIfUnit(t *testing.T) {
	t.Setenv(EnvUnitOnly, "true")
	skipped := true
	t.Run("inner", func(t *testing.T) {
		SkipIfUnit(t)
		skipped = false
	})
	if !skipped {
		t.Error("SkipIfUnit did not skip")
	}
}

func TestNATSURLSkipsWithoutServer(t *testing.T) {
	t.Setenv(EnvUnitOnly, "")
	t.Setenv(EnvNATSURL, "")
	ran := false
	t.Run("inner", func(t *testing.T) {
		NATSURL(t)
		ran = true
	})
	if ran {
		t.Error("NATSURL did not skip without a server")
	}
}
