package config

import (
	"testing"
	"time"

	"hookline/internal/platform/testkit"
)

func TestMustStringPanicsWhenMissing(t *testing.T) {
	c := New().Prefix("CFGTEST_")
	testkit.MustPanic(t, func() { c.MustString("ABSENT") })
}

func TestMustString(t *testing.T) {
	t.Setenv("CFGTEST_NAME", " hookline ")
	c := New().Prefix("CFGTEST_")
	if got := c.MustString("NAME"); got != "hookline" {
		t.Fatalf("MustString = %q", got)
	}
}

func TestMustPort(t *testing.T) {
	t.Setenv("CFGTEST_PORT", "4100")
	c := New().Prefix("CFGTEST_")
	if got := c.MustPort("PORT"); got != ":4100" {
		t.Fatalf("MustPort = %q", got)
	}
	t.Setenv("CFGTEST_PORT", "99999")
	testkit.MustPanic(t, func() { c.MustPort("PORT") })
}

func TestMayAccessorsFallBack(t *testing.T) {
	c := New().Prefix("CFGTEST_")
	if got := c.MayString("S", "dft"); got != "dft" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayInt("I", 12); got != 12 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayBool("B", true); got != true {
		t.Fatalf("MayBool = %v", got)
	}
	if got := c.MayDuration("D", 5*time.Second); got != 5*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
}

func TestMayAccessorsParse(t *testing.T) {
	t.Setenv("CFGTEST_I", "7")
	t.Setenv("CFGTEST_B", "false")
	t.Setenv("CFGTEST_D", "250ms")
	c := New().Prefix("CFGTEST_")
	if got := c.MayInt("I", 0); got != 7 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayBool("B", true); got != false {
		t.Fatalf("MayBool = %v", got)
	}
	if got := c.MayDuration("D", time.Second); got != 250*time.Millisecond {
		t.Fatalf("MayDuration = %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	t.Setenv("CFGTEST_MODE", "batch")
	c := New().Prefix("CFGTEST_")
	if got := c.MayEnum("MODE", "single", "single", "batch"); got != "batch" {
		t.Fatalf("MayEnum = %q", got)
	}
	t.Setenv("CFGTEST_MODE", "bogus")
	testkit.MustPanic(t, func() { c.MayEnum("MODE", "single", "single", "batch") })
}
