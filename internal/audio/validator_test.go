package audio_test

import (
	"testing"

	"cdrip/internal/audio"
	"cdrip/internal/testsupport"
)

func outstandingPads(eng *testsupport.FakeEngine) int {
	total := 0
	for _, el := range eng.Elements() {
		total += el.RequestedPads()
	}
	return total
}

func TestProbeIdempotent(t *testing.T) {
	eng := testsupport.NewFakeEngine()
	v := audio.NewValidator(eng, nil)

	for _, f := range audio.AllFormats() {
		first := v.Probe(f)
		second := v.Probe(f)
		if !first || first != second {
			t.Fatalf("%s: probes disagree or failed (%v, %v)", f, first, second)
		}
	}
	if n := outstandingPads(eng); n != 0 {
		t.Fatalf("expected no outstanding request pads, got %d", n)
	}
}

func TestSupportedFiltersRejectedProfiles(t *testing.T) {
	eng := testsupport.NewFakeEngine().
		RejectProfile(audio.AAC.Descriptor().Profile()).
		RejectProfile(audio.WavPack.Descriptor().Profile())
	v := audio.NewValidator(eng, nil)

	got := v.Supported()
	want := []audio.Format{audio.Opus, audio.Vorbis, audio.FLAC, audio.MP3}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	results := v.Results()
	if results[audio.AAC] || !results[audio.Opus] || len(results) != len(audio.AllFormats()) {
		t.Fatalf("unexpected results %v", results)
	}
	if n := outstandingPads(eng); n != 0 {
		t.Fatalf("expected no outstanding request pads, got %d", n)
	}
}

func TestMissingMuxerReportsNothingSupported(t *testing.T) {
	eng := testsupport.NewFakeEngine().MissingFactory(audio.ProbeFactory)
	v := audio.NewValidator(eng, nil)

	if got := v.Supported(); len(got) != 0 {
		t.Fatalf("expected no supported formats, got %v", got)
	}
	for f, ok := range v.Results() {
		if ok {
			t.Fatalf("%s should be unsupported", f)
		}
	}
	if v.Probe(audio.FLAC) {
		t.Fatal("probe should fail without the muxer")
	}
	if n := len(eng.Elements()); n != 0 {
		t.Fatalf("no elements should be created, got %d", n)
	}
}

func TestNilValidator(t *testing.T) {
	var v *audio.Validator
	if v.Probe(audio.Opus) {
		t.Fatal("nil validator should report unsupported")
	}
	if len(v.Supported()) != 0 {
		t.Fatal("nil validator should support nothing")
	}
}

func TestRepeatedChecksReuseOneElement(t *testing.T) {
	eng := testsupport.NewFakeEngine().RejectProfile(audio.AAC.Descriptor().Profile())
	v := audio.NewValidator(eng, nil)

	for range 3 {
		v.Results()
		v.Supported()
	}
	if n := len(eng.Elements()); n != 1 {
		t.Fatalf("expected a single shared encoder element, got %d", n)
	}
	if results := v.Results(); results[audio.AAC] || !results[audio.Opus] {
		t.Fatalf("profile swap on the shared element changed results: %v", results)
	}
	if n := outstandingPads(eng); n != 0 {
		t.Fatalf("expected no outstanding request pads, got %d", n)
	}
}
