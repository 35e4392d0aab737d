package roster

import "testing"

func TestResolve(t *testing.T) {
	r := Resolver{Policy: UnknownAsAttacker}
	cases := []struct {
		code string
		want Role
	}{
		{"CB", Defender},
		{"rwb", Defender},
		{"DM", Midfielder},
		{"LM", Midfielder},
		{"ST", Attacker},
		{"UNK", Attacker},
		{"GK", Goalkeeper},
		{"XX", Attacker},
	}
	for _, c := range cases {
		got, ok := r.Resolve(c.code)
		if !ok || got != c.want {
			t.Errorf("Resolve(%q) = %s,%v want %s", c.code, got, ok, c.want)
		}
	}
}

func TestResolveSkipPolicy(t *testing.T) {
	r := Resolver{Policy: UnknownSkip}
	if _, ok := r.Resolve("XX"); ok {
		t.Fatal("unknown code should be skipped")
	}
	if role, ok := r.Resolve("GK"); !ok || role != Goalkeeper {
		t.Fatalf("known code should still resolve, got %s,%v", role, ok)
	}
}

func TestPositionOfAndPlural(t *testing.T) {
	if got := PositionOf("CB_3"); got != "CB" {
		t.Fatalf("PositionOf = %q", got)
	}
	if got := PositionOf("GK"); got != "GK" {
		t.Fatalf("PositionOf without number = %q", got)
	}
	if Midfielder.Plural() != "midfielders" {
		t.Fatalf("plural = %q", Midfielder.Plural())
	}
}
