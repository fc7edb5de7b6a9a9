// internal/workflow/workflow.go
// Package workflow sequences one conversation turn: classify the intent,
// extract the query, resolve the location, produce the flood analysis.
//
// Nodes never mutate the state they receive. Every step clones the turn
// state and sets its own fields, so a caller can retry or inspect any
// intermediate state without aliasing surprises.
package workflow

import (
	"context"
	"fmt"

	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/mapdata"
	"disaster-eye-workers/internal/models"
)

// Clarification names the field the user must supply before the turn can
// continue. Empty means no clarification is needed.
type Clarification string

const (
	ClarifyNone     Clarification = ""
	ClarifyLocation Clarification = "location"
	ClarifyAnalysis Clarification = "analysis"
)

// Prompt returns the question to show the user for a clarification.
func (c Clarification) Prompt() string {
	switch c {
	case ClarifyLocation:
		return "Please provide the location you're interested in."
	case ClarifyAnalysis:
		return "May I assist with flood vulnerability, site suitability, or something else?"
	default:
		return ""
	}
}

// IntentClassifier labels an utterance as ordinary chat or a geospatial
// query.
type IntentClassifier interface {
	Classify(ctx context.Context, input string) (models.Intent, error)
}

// Extraction is the query extractor's outcome for one utterance. Location
// and Analysis are only meaningful when Ask is empty.
type Extraction struct {
	Location string
	Analysis string
	Ask      Clarification
}

// QueryExtractor pulls a location and an analysis type out of an utterance.
type QueryExtractor interface {
	Extract(ctx context.Context, input string) (Extraction, error)
}

// LocationResolver geocodes a place name. A miss returns (nil, nil).
type LocationResolver interface {
	Resolve(ctx context.Context, location string) (*models.Coordinates, error)
}

// FloodProducer runs the flood analysis for resolved coordinates. Failures
// are folded into the returned summary and payload, never raised.
type FloodProducer interface {
	Produce(ctx context.Context, lat, lng float64, locationName string) (string, models.MapPayload)
}

// Result is one finished turn: the updated state plus an optional
// clarification request that ended the turn early.
type Result struct {
	State         models.TurnState
	Clarification Clarification
}

// Workflow wires the four conversation nodes into the turn pipeline.
type Workflow struct {
	classifier IntentClassifier
	extractor  QueryExtractor
	resolver   LocationResolver
	producer   FloodProducer
	logger     logger.Logger
}

// New builds a workflow from its collaborators.
func New(classifier IntentClassifier, extractor QueryExtractor, resolver LocationResolver, producer FloodProducer, log logger.Logger) *Workflow {
	return &Workflow{
		classifier: classifier,
		extractor:  extractor,
		resolver:   resolver,
		producer:   producer,
		logger:     log.With(map[string]interface{}{"component": "conversation-workflow"}),
	}
}

// Run executes one turn. Classifier and extractor provider errors abort the
// turn; everything downstream degrades into the state instead of failing.
func (w *Workflow) Run(ctx context.Context, state models.TurnState) (Result, error) {
	state = state.Clone()

	intent, err := w.classifier.Classify(ctx, state.Input)
	if err != nil {
		return Result{State: state}, fmt.Errorf("classify intent: %w", err)
	}
	state = withIntent(state, intent)

	if intent == models.IntentNormal {
		w.logger.Info("Turn handled as normal chat", map[string]interface{}{
			"input": state.Input,
		})
		return Result{State: state}, nil
	}

	// Anything that is not literally "normal" is treated as a query,
	// including unparseable classifier output.
	extraction, err := w.extractor.Extract(ctx, state.Input)
	if err != nil {
		return Result{State: state}, fmt.Errorf("extract query: %w", err)
	}
	if extraction.Ask != ClarifyNone {
		w.logger.Info("Turn needs clarification", map[string]interface{}{
			"missing": string(extraction.Ask),
		})
		return Result{State: state, Clarification: extraction.Ask}, nil
	}
	state = withExtraction(state, extraction)

	state = w.resolve(ctx, state)
	state = w.analyze(ctx, state)
	return Result{State: state}, nil
}

// resolve geocodes the extracted location. Misses and provider failures
// leave the coordinates absent; the turn still continues.
func (w *Workflow) resolve(ctx context.Context, state models.TurnState) models.TurnState {
	if state.Location == "" {
		return state
	}

	coords, err := w.resolver.Resolve(ctx, state.Location)
	if err != nil {
		w.logger.Warn("Geocoding failed, continuing without coordinates", map[string]interface{}{
			"location": state.Location,
			"error":    err.Error(),
		})
		return state
	}
	if coords == nil {
		w.logger.Info("No coordinates found for location", map[string]interface{}{
			"location": state.Location,
		})
		return state
	}

	next := state.Clone()
	next.Latitude = models.Float64(coords.Lat)
	next.Longitude = models.Float64(coords.Lng)
	return next
}

// analyze fills in the summary and map payload. Without coordinates the
// producer is never invoked and a synthetic error payload is returned.
func (w *Workflow) analyze(ctx context.Context, state models.TurnState) models.TurnState {
	next := state.Clone()

	if !state.HasCoordinates() {
		summary := "Missing coordinates for flood analysis"
		w.logger.Error(summary, map[string]interface{}{"location": state.Location})
		next.ResultSummary = summary
		payload := mapdata.MissingCoordinatesMap(summary)
		next.MapPayload = &payload
		return next
	}

	summary, payload := w.producer.Produce(ctx, *state.Latitude, *state.Longitude, state.Location)
	next.ResultSummary = summary
	next.MapPayload = &payload
	return next
}

func withIntent(state models.TurnState, intent models.Intent) models.TurnState {
	next := state.Clone()
	next.Intent = intent
	return next
}

func withExtraction(state models.TurnState, ext Extraction) models.TurnState {
	next := state.Clone()
	next.Location = ext.Location
	next.Analysis = ext.Analysis
	return next
}
