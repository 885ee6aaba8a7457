package pt2itp

import (
	"context"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// PostStage is named post-processing step applied to every produced cluster feature
type PostStage string

const (
	STAGE_DEDUPE = PostStage("dedupe")
	STAGE_PROPS  = PostStage("props")
)

// stageOrder is the only order post stages may run in
var stageOrder = map[PostStage]int{
	STAGE_DEDUPE: 1,
	STAGE_PROPS:  2,
}

// PostPipeline applies post stages in validated order
type PostPipeline struct {
	stages    []PostStage
	propsKeys []string
}

// NewPostPipeline validates stage sequence: stages must be known, unique and dedupe must precede props
func NewPostPipeline(stages []PostStage, propsKeys []string) (*PostPipeline, error) {
	last := 0
	seen := map[PostStage]struct{}{}
	for _, stage := range stages {
		order, ok := stageOrder[stage]
		if !ok {
			return nil, fmt.Errorf("Unknown post stage '%s'", stage)
		}
		if _, ok := seen[stage]; ok {
			return nil, fmt.Errorf("Post stage '%s' is repeated", stage)
		}
		if order < last {
			return nil, errors.Wrapf(ErrOrderingViolation, "Post stage '%s' is placed after a later stage", stage)
		}
		seen[stage] = struct{}{}
		last = order
	}
	return &PostPipeline{
		stages:    stages,
		propsKeys: propsKeys,
	}, nil
}

// Stages returns configured stages
func (pipeline *PostPipeline) Stages() []PostStage {
	return pipeline.stages
}

// Apply runs every stage over feature
func (pipeline *PostPipeline) Apply(feat *geojson.Feature) (*geojson.Feature, error) {
	var err error
	for _, stage := range pipeline.stages {
		switch stage {
		case STAGE_DEDUPE:
			feat, err = Dedupe(feat)
		case STAGE_PROPS:
			feat, err = Props(feat, pipeline.propsKeys)
		}
		if err != nil {
			return feat, errors.Wrapf(err, "Post stage '%s' failed", stage)
		}
	}
	return feat, nil
}

// Run splits features and post-processes every produced cluster.
// Errors are kept per source feature: a failed feature does not affect the others.
// Features the splitter writes by itself (WithStdout) are the ones before post stages
func (pipeline *PostPipeline) Run(ctx context.Context, splitter *Splitter, feats []*SplitFeature, workers int) []SplitResult {
	results := splitter.SplitBatch(ctx, feats, workers)
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		processed := make([]*geojson.Feature, 0, len(results[i].Features))
		for _, feat := range results[i].Features {
			out, err := pipeline.Apply(feat)
			if err != nil {
				results[i].Err = err
				break
			}
			processed = append(processed, out)
		}
		if results[i].Err != nil {
			results[i].Features = nil
			continue
		}
		results[i].Features = processed
	}
	return results
}
