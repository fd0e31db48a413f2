package acoustid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
)

// ErrFpcalcNotFound is returned when the fpcalc binary cannot be found
var ErrFpcalcNotFound = errors.New("fpcalc binary not found")

// Fingerprint is the output of one fpcalc run
type Fingerprint struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// CalcFingerprint runs the chromaprint fpcalc binary on an audio file.
// fpcalcPath may be empty, in which case the binary is looked up on PATH.
func CalcFingerprint(ctx context.Context, fpcalcPath, audioPath string) (*Fingerprint, error) {
	bin := fpcalcPath
	if bin == "" {
		var err error
		bin, err = exec.LookPath("fpcalc")
		if err != nil {
			return nil, ErrFpcalcNotFound
		}
	}

	out, err := exec.CommandContext(ctx, bin, "-json", audioPath).Output()
	if err != nil {
		return nil, fmt.Errorf("fpcalc failed for %s: %w", audioPath, err)
	}

	var fp Fingerprint
	if err := json.Unmarshal(out, &fp); err != nil {
		return nil, fmt.Errorf("failed to parse fpcalc output: %w", err)
	}
	if fp.Fingerprint == "" {
		return nil, fmt.Errorf("fpcalc produced no fingerprint for %s", audioPath)
	}
	return &fp, nil
}
