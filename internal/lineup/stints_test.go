package lineup

import (
	"testing"
	"time"

	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/telemetry"
)

func stintMatch() matchmeta.MatchInfo {
	return matchmeta.MatchInfo{
		ID:              "2024-08-31-derby",
		FirstHalfStart:  kickoff,
		FirstHalfEnd:    kickoff.Add(45 * time.Minute),
		SecondHalfStart: kickoff.Add(60 * time.Minute),
		SecondHalfEnd:   kickoff.Add(105 * time.Minute),
		RedCards:        []matchmeta.RedCard{{PlayerID: "CM_6", At: kickoff.Add(30 * time.Minute)}},
	}
}

func TestStintOf(t *testing.T) {
	info := stintMatch()
	actual := &Actual{
		Lineup: []string{"CB_4", "CM_6", "ST_9"},
		Subs: []ReportedSub{
			{Minute: 20, Out: "CB_4", In: "RB_2"},
			{Minute: 70, Out: "RB_2", In: "LW_11"},
		},
	}

	cases := []struct {
		player   string
		played   bool
		from, to time.Duration
	}{
		{"ST_9", true, 0, 105 * time.Minute},
		{"CB_4", true, 0, 20 * time.Minute},
		{"RB_2", true, 20 * time.Minute, 85 * time.Minute},
		{"LW_11", true, 85 * time.Minute, 105 * time.Minute},
		{"CM_6", true, 0, 30 * time.Minute},
		{"GK_12", false, 0, 0},
	}
	for _, tc := range cases {
		stint, played := StintOf(actual, info, tc.player)
		if played != tc.played {
			t.Fatalf("%s: played = %v, want %v", tc.player, played, tc.played)
		}
		if !played {
			continue
		}
		if !stint.From.Equal(kickoff.Add(tc.from)) || !stint.To.Equal(kickoff.Add(tc.to)) {
			t.Errorf("%s: stint %s-%s", tc.player, stint.From.Format("15:04"), stint.To.Format("15:04"))
		}
	}
}

func TestStintOfWithoutPublishedLineup(t *testing.T) {
	info := stintMatch()
	stint, played := StintOf(nil, info, "RB_2")
	if !played || !stint.From.Equal(info.FirstHalfStart) || !stint.To.Equal(info.SecondHalfEnd) {
		t.Fatalf("without a lineup every player covers the match: %+v %v", stint, played)
	}
	if stint, _ := StintOf(nil, info, "CM_6"); !stint.To.Equal(kickoff.Add(30 * time.Minute)) {
		t.Fatalf("red card should still end the stint, got %s", stint.To)
	}
}

func TestStintTrim(t *testing.T) {
	var samples []telemetry.Sample
	for i := range 10 {
		samples = append(samples, telemetry.Sample{Time: kickoff.Add(time.Duration(i) * time.Minute), Lat: 32, Speed: 1})
	}
	got := Stint{From: kickoff.Add(2 * time.Minute), To: kickoff.Add(5 * time.Minute)}.Trim(samples)
	if len(got) != 3 || !got[0].Time.Equal(samples[2].Time) || !got[2].Time.Equal(samples[4].Time) {
		t.Fatalf("trim should keep [From, To): %+v", got)
	}
	if got := (Stint{From: kickoff.Add(5 * time.Minute), To: kickoff.Add(time.Minute)}).Trim(samples); got != nil {
		t.Fatalf("empty stint should keep nothing: %+v", got)
	}
}

func TestFixesFromSamplesSkipsNoFix(t *testing.T) {
	samples := []telemetry.Sample{
		{Time: kickoff, Lat: 0, Lon: 0},
		{Time: kickoff.Add(200 * time.Millisecond), Lat: 32.1, Lon: 34.8},
		{Time: kickoff.Add(400 * time.Millisecond), Lat: 32.2, Lon: 34.8},
	}
	fixes := FixesFromSamples("CB_4", samples, time.Second)
	if len(fixes) != 1 || fixes[0].Lat != 32.1 {
		t.Fatalf("first sample with a fix should represent the second: %+v", fixes)
	}
}
