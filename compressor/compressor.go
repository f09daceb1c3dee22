package compressor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"compressd/logger"
	"compressd/models"
	"compressd/utils"
)

// ProgressFunc receives engine progress as a 0-100 percentage of the encode.
type ProgressFunc = func(percent int)

// defaultOrder is the preference order of the default-selection policy.
var defaultOrder = []models.QualityPreset{
	models.PresetBalanced,
	models.PresetUltrafast,
	models.PresetHigh,
	models.PresetAudio,
}

// inputs larger than this get the ultrafast preset when the caller didn't
// pick one
const largeInputBytes = 200 << 20

// Engine turns an input file into a compressed output honoring
// CompressionOptions, reporting progress along the way.
type Engine struct {
	registry map[models.QualityPreset]Strategy
}

// New builds an engine with one strategy per configured preset.
func New(presets map[models.QualityPreset]models.PresetParams) *Engine {
	return &Engine{registry: buildRegistry(presets)}
}

// Compress probes the input, selects a strategy, runs the encode and returns
// the output path inside outputDir. The output lands there only on success;
// a cancelled or failed encode leaves no file in the final location. A
// successful return is always preceded by a 100% progress report.
func (e *Engine) Compress(ctx context.Context, inputPath, outputDir string, opts models.CompressionOptions, report ProgressFunc) (string, error) {
	info, err := Probe(ctx, inputPath)
	if err != nil {
		return "", err
	}
	logger.Debugf("probed %s: container=%s duration=%s size=%d video=%v audio=%v",
		inputPath, info.Container, info.Duration, info.SizeBytes, info.HasVideo, info.HasAudio)

	strategy, err := e.selectStrategy(info, opts)
	if err != nil {
		return "", err
	}

	plan, err := strategy.Plan(info, opts)
	if err != nil {
		return "", err
	}

	outputPath := outputName(outputDir, inputPath, strategy)
	scratch, err := utils.RandomHex(6)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrExecutionFailure, err)
	}
	tempPath := outputPath + "." + scratch + ".part"

	if err := e.encode(ctx, info, plan, tempPath, opts, report); err != nil {
		os.Remove(tempPath)
		return "", err
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("%w: move output into place: %v", models.ErrExecutionFailure, err)
	}

	if report != nil {
		report(100)
	}
	logger.Infof("compressed %s with strategy [%s] -> %s", inputPath, strategy.Name, outputPath)
	return outputPath, nil
}

// encode runs the plan, re-encoding with tightened bitrates when the first
// pass overshoots the requested maximum size.
func (e *Engine) encode(ctx context.Context, info MediaInfo, plan encodePlan, tempPath string, opts models.CompressionOptions, report ProgressFunc) error {
	if err := runFFmpeg(ctx, plan.args(info.Path, tempPath), info.Duration, report); err != nil {
		return err
	}
	if opts.MaxSizeBytes <= 0 {
		return nil
	}

	st, err := os.Stat(tempPath)
	if err != nil {
		return fmt.Errorf("%w: stat output: %v", models.ErrExecutionFailure, err)
	}
	if st.Size() <= opts.MaxSizeBytes {
		return nil
	}

	logger.Infof("output %d bytes over %d byte limit, re-encoding tighter", st.Size(), opts.MaxSizeBytes)
	plan, err = replanAfterOvershoot(info, plan, st.Size(), opts)
	if err != nil {
		return err
	}

	if err := runFFmpeg(ctx, plan.args(info.Path, tempPath), info.Duration, report); err != nil {
		return err
	}

	st, err = os.Stat(tempPath)
	if err != nil {
		return fmt.Errorf("%w: stat output: %v", models.ErrExecutionFailure, err)
	}
	if st.Size() > opts.MaxSizeBytes {
		return fmt.Errorf("%w: re-encode still %d bytes over the %d byte limit",
			models.ErrSizeConstraintUnmet, st.Size()-opts.MaxSizeBytes, opts.MaxSizeBytes)
	}
	return nil
}

// replanAfterOvershoot picks the second-pass plan after an encode exceeded
// the size limit. A CRF pass switches to explicit bitrate targets; a
// targeted pass tightens them. When the input's duration is unknown no
// bitrate can be derived and a repeat pass would produce the same bytes, so
// the constraint is unmet.
func replanAfterOvershoot(info MediaInfo, plan encodePlan, actualBytes int64, opts models.CompressionOptions) (encodePlan, error) {
	if plan.videoKbps == 0 && plan.strategy.MediaType == models.MediaVideo {
		constrained, err := plan.strategy.Plan(info, opts)
		if err != nil {
			return plan, err
		}
		if constrained.videoKbps == 0 {
			return plan, fmt.Errorf("%w: %d bytes over the %d byte limit with no duration to derive a bitrate from",
				models.ErrSizeConstraintUnmet, actualBytes-opts.MaxSizeBytes, opts.MaxSizeBytes)
		}
		return constrained, nil
	}

	if !plan.tighten(actualBytes, opts.MaxSizeBytes) {
		return plan, fmt.Errorf("%w: %d bytes is the floor for this input, limit is %d",
			models.ErrSizeConstraintUnmet, actualBytes, opts.MaxSizeBytes)
	}
	return plan, nil
}

// selectStrategy picks the caller's preset, or applies the default policy:
// audio inputs get the audio preset, large videos get ultrafast, everything
// else gets the first compatible preset in preference order.
func (e *Engine) selectStrategy(info MediaInfo, opts models.CompressionOptions) (Strategy, error) {
	if opts.Preset != "" {
		strategy, ok := e.registry[opts.Preset]
		if !ok {
			return Strategy{}, fmt.Errorf("%w: preset %q is not registered", models.ErrExecutionFailure, opts.Preset)
		}
		if !strategy.Handles(info) {
			return Strategy{}, fmt.Errorf("%w: preset %q cannot process %s input",
				models.ErrUnsupportedFormat, opts.Preset, info.MediaType())
		}
		return strategy, nil
	}

	if !info.HasVideo {
		if strategy, ok := e.registry[models.PresetAudio]; ok && strategy.Handles(info) {
			return strategy, nil
		}
	}
	if info.HasVideo && info.SizeBytes > largeInputBytes {
		if strategy, ok := e.registry[models.PresetUltrafast]; ok && strategy.Handles(info) {
			return strategy, nil
		}
	}
	for _, name := range defaultOrder {
		if strategy, ok := e.registry[name]; ok && strategy.Handles(info) {
			return strategy, nil
		}
	}
	return Strategy{}, fmt.Errorf("%w: no registered strategy handles %s (%s)",
		models.ErrUnsupportedFormat, info.Path, info.Container)
}

// outputName derives the final output path from the input and strategy:
// input.mp4 + balanced -> outputDir/input_balanced.mp4
func outputName(outputDir, inputPath string, strategy Strategy) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s.%s", stem, strategy.Name, strategy.Params.Extension))
}
