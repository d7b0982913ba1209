package usecase

import (
	"context"
	"fmt"
	"strings"

	"docrag/internal/adapter/fs"
	"docrag/internal/domain"
	"docrag/internal/logger"
	"docrag/internal/port"
)

// DefaultMinTextLength is the shortest input worth training on.
const DefaultMinTextLength = 50

// TrainUseCase gathers training text from files or raw input, trains a
// collection and persists it.
type TrainUseCase struct {
	engine        *Engine
	walker        *fs.Walker
	snapshots     port.SnapshotStore // nil keeps collections in memory only
	minTextLength int
	readFile      func(path string) (string, error)
}

// NewTrainUseCase creates a new train use case.
func NewTrainUseCase(
	engine *Engine,
	walker *fs.Walker,
	snapshots port.SnapshotStore,
	minTextLength int,
) *TrainUseCase {
	if minTextLength < 0 {
		minTextLength = DefaultMinTextLength
	}
	return &TrainUseCase{
		engine:        engine,
		walker:        walker,
		snapshots:     snapshots,
		minTextLength: minTextLength,
		readFile:      fs.ReadFile,
	}
}

// TrainOutcome contains the results of a training run.
type TrainOutcome struct {
	domain.TrainResult
	Files      []string
	Errors     []string
	TextLength int
}

// TrainFiles trains a collection on every file found under paths. Each
// file is introduced by a "=== FILE: name ===" header. Unreadable files
// are reported and skipped; if training then fails, their read errors are
// appended to the returned error.
func (u *TrainUseCase) TrainFiles(ctx context.Context, collectionID string, paths []string, opts ...TrainOption) (*TrainOutcome, error) {
	files, err := u.walker.Collect(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files matched", domain.ErrEmptyInput)
	}

	var (
		sb      strings.Builder
		names   []string
		readErr []string
	)
	for _, f := range files {
		content, err := u.readFile(f.Path)
		if err != nil {
			logger.Warn("skipping %s: %v", f.Path, err)
			readErr = append(readErr, fmt.Sprintf("failed to read %s: %v", f.Path, err))
			continue
		}
		sb.WriteString(FileSection(f.Name, content))
		names = append(names, f.Name)
	}

	out, err := u.TrainText(ctx, collectionID, sb.String(), opts...)
	if out == nil {
		out = &TrainOutcome{}
	}
	out.Files = names
	out.Errors = readErr
	if err != nil && len(readErr) > 0 {
		err = fmt.Errorf("%w (%s)", err, strings.Join(readErr, "; "))
	}
	return out, err
}

// TrainText trains a collection on raw text and persists it when a
// snapshot store is configured.
func (u *TrainUseCase) TrainText(ctx context.Context, collectionID, text string, opts ...TrainOption) (*TrainOutcome, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domain.ErrEmptyInput
	}
	if n := len([]rune(trimmed)); n < u.minTextLength {
		return nil, fmt.Errorf("%w: %d characters, need at least %d", domain.ErrTextTooShort, n, u.minTextLength)
	}

	res, err := u.engine.Train(ctx, collectionID, text, opts...)
	out := &TrainOutcome{TrainResult: res, TextLength: len([]rune(text))}
	if err != nil {
		return out, err
	}

	if u.snapshots != nil {
		if err := u.engine.Persist(collectionID, u.snapshots); err != nil {
			return out, err
		}
	}
	return out, nil
}

// FileSection frames one file's content for a multi-file training text.
func FileSection(name, content string) string {
	return fmt.Sprintf("\n\n=== FILE: %s ===\n%s", name, content)
}
