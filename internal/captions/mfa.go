package captions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrAlignmentFailed wraps forced-alignment failures: nonzero aligner exit
// or a run that produced no output file.
var ErrAlignmentFailed = errors.New("forced alignment failed")

// MFA invocation parameters. The wide retry beam keeps alignment from giving
// up on fast or mumbled narration.
const (
	mfaAcousticModel = "english_us_arpa"
	mfaLexicon       = "english_us_arpa"
	mfaBeam          = "200"
	mfaRetryBeam     = "800"
)

// MFAAligner shells out to the Montreal Forced Aligner. The corpus layout it
// expects (one directory holding matching .txt and .wav files) is built in a
// scratch directory per call.
type MFAAligner struct {
	binPath string
}

func NewMFAAligner(binPath string) *MFAAligner {
	if binPath == "" {
		binPath = "mfa"
	}
	return &MFAAligner{binPath: binPath}
}

var _ Aligner = (*MFAAligner)(nil)

// Align runs MFA over the (text, audio) pair and parses its word tier into
// cues. The audio at audioPath should be mono 16kHz WAV per the aligner's
// input contract.
func (a *MFAAligner) Align(ctx context.Context, text, audioPath string, globalOffset float64) ([]Cue, error) {
	corpusDir, err := os.MkdirTemp("", "align-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create alignment scratch dir: %w", err)
	}
	defer os.RemoveAll(corpusDir)

	if err := os.WriteFile(filepath.Join(corpusDir, "input.txt"), []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write alignment transcript: %w", err)
	}
	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read alignment audio %s: %w", audioPath, err)
	}
	if err := os.WriteFile(filepath.Join(corpusDir, "input.wav"), audioBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to stage alignment audio: %w", err)
	}

	outDir := filepath.Join(corpusDir, "aligned")
	args := []string{
		"align",
		corpusDir,
		mfaLexicon,
		mfaAcousticModel,
		outDir,
		"--beam", mfaBeam,
		"--retry_beam", mfaRetryBeam,
		"--output_format", "json",
		"--single_speaker", "true",
	}

	cmd := exec.CommandContext(ctx, a.binPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("[Align] mfa exited with error: %v: %s", err, out)
		return nil, fmt.Errorf("%w: %v", ErrAlignmentFailed, err)
	}

	resultPath := filepath.Join(outDir, "input.json")
	data, err := os.ReadFile(resultPath)
	if err != nil {
		return nil, fmt.Errorf("%w: no alignment output at %s", ErrAlignmentFailed, resultPath)
	}

	cues, err := parseMFAOutput(data)
	if err != nil {
		return nil, err
	}
	return finalizeCues(cues, globalOffset), nil
}

// mfaDocument mirrors the slice of MFA's JSON output we consume: the word
// tier, whose entries are [start, end, word] triples.
type mfaDocument struct {
	Tiers struct {
		Words struct {
			Entries [][]json.RawMessage `json:"entries"`
		} `json:"words"`
	} `json:"tiers"`
}

func parseMFAOutput(data []byte) ([]Cue, error) {
	var doc mfaDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed alignment output: %v", ErrAlignmentFailed, err)
	}

	cues := make([]Cue, 0, len(doc.Tiers.Words.Entries))
	for _, entry := range doc.Tiers.Words.Entries {
		if len(entry) < 3 {
			continue
		}
		var cue Cue
		if err := json.Unmarshal(entry[0], &cue.Start); err != nil {
			continue
		}
		if err := json.Unmarshal(entry[1], &cue.End); err != nil {
			continue
		}
		if err := json.Unmarshal(entry[2], &cue.Word); err != nil {
			continue
		}
		cues = append(cues, cue)
	}
	return cues, nil
}
