package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func writeECG(t *testing.T, path string, rate, bpm float64, n int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("mlii\n")
	phase := 0.0
	for i := 0; i < n; i++ {
		phase += bpm / 60 / rate
		if phase >= 1 {
			phase--
		}
		v := 0.05*math.Sin(2*math.Pi*0.33*phase) +
			0.08*gauss(phase, 0.18, 0.03) -
			0.12*gauss(phase, 0.30, 0.01) +
			gauss(phase, 0.32, 0.008) -
			0.25*gauss(phase, 0.35, 0.012) +
			0.25*gauss(phase, 0.60, 0.06)
		fmt.Fprintf(&b, "%.17g\n", v)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	data := fmt.Sprintf(`sampling_rate: 250
input:
  skip_header: true
storage:
  type: memory
logger:
  level: debug
  file: %q
  json_file: %q
`, filepath.Join(dir, "ekgrate.log"), filepath.Join(dir, "ekgrate.json.log"))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	ecg := filepath.Join(dir, "ecg.csv")
	writeECG(t, ecg, 250, 100, 2500)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfg, ecg}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), ecg+": 100.0 уд/мин, пиков: 17") {
		t.Fatalf("unexpected summary %q", stdout.String())
	}

	if info, err := os.Stat(filepath.Join(dir, "ekgrate.json.log")); err != nil || info.Size() == 0 {
		t.Fatalf("expected JSON log to be written: %v", err)
	}
}

func TestRun_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	ecg := filepath.Join(dir, "ecg.csv")
	writeECG(t, ecg, 250, 100, 2500)
	missing := filepath.Join(dir, "missing.csv")
	unsupported := filepath.Join(dir, "rec.wav")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfg, missing, ecg, unsupported}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 summary lines, got %q", stdout.String())
	}
	if !strings.HasPrefix(lines[0], missing+": ошибка") ||
		!strings.HasPrefix(lines[1], ecg+": 100.0") ||
		!strings.HasPrefix(lines[2], unsupported+": ошибка") {
		t.Fatalf("unexpected summary order:\n%s", stdout.String())
	}
}

func TestRun_BadArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit code 2 without files, got %d", code)
	}

	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	if code := run([]string{"-config", cfg, "-rate", "-1", "a.csv"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit code 2 for negative rate, got %d", code)
	}
	// Частота среза 50 Гц выше частоты Найквиста для 80 Гц
	if code := run([]string{"-config", cfg, "-rate", "80", "a.csv"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit code 2 for invalid filter, got %d", code)
	}
}
