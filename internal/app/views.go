package app

import (
	"context"
	"fmt"
	"strings"

	"heritage_explorer/internal/domain"
)

type Period struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Year  string `json:"year"`
}

var Periods = []Period{
	{Value: "50-years", Label: "50 Years Ago", Year: "1975"},
	{Value: "100-years", Label: "100 Years Ago", Year: "1925"},
	{Value: "200-years", Label: "200 Years Ago", Year: "1825"},
	{Value: "original", Label: "Original Era", Year: "As Built"},
}

const (
	DefaultPeriod   = "100-years"
	historicalImage = "https://images.pexels.com/photos/1583339/pexels-photo-1583339.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2"
)

func findPeriod(v string) (Period, bool) {
	if v == "" {
		v = DefaultPeriod
	}
	for _, p := range Periods {
		if p.Value == v {
			return p, true
		}
	}
	return Period{}, false
}

type HistoricalView struct {
	PlaceName   string   `json:"placeName"`
	Period      Period   `json:"period"`
	Periods     []Period `json:"periods"`
	Image       string   `json:"image"`
	Caption     string   `json:"caption"`
	Description string   `json:"description"`
}

// HistoricalView returns the placeholder "time travel" rendering of a place.
func (s *QueryService) HistoricalView(ctx context.Context, id, period string) (HistoricalView, error) {
	per, ok := findPeriod(period)
	if !ok {
		return HistoricalView{}, fmt.Errorf("%w: %q", domain.ErrUnknownPeriod, period)
	}
	p, err := s.GetPlace(ctx, id)
	if err != nil {
		return HistoricalView{}, err
	}
	return HistoricalView{
		PlaceName: p.Name,
		Period:    per,
		Periods:   Periods,
		Image:     historicalImage,
		Caption:   fmt.Sprintf("%s - %s", p.Name, per.Label),
		Description: fmt.Sprintf("This AI-generated image shows how %s might have appeared during the %s period, based on historical records and architectural analysis.",
			p.Name, per.Year),
	}, nil
}

// ---- voice assistant (simulated) ----

var SampleQuestions = []string{
	"What is the historical significance?",
	"Who built this monument?",
	"What materials were used?",
	"Tell me about the architecture",
}

const listenTranscript = "Tell me about the architecture of this monument"

type VoiceAnswer struct {
	PlaceName  string `json:"placeName"`
	Transcript string `json:"transcript"`
	Response   string `json:"response"`
	Speak      bool   `json:"speak"`
}

type VoiceState struct {
	PlaceName       string   `json:"placeName"`
	SampleQuestions []string `json:"sampleQuestions"`
}

func (s *QueryService) Voice(ctx context.Context, id string) (VoiceState, error) {
	p, err := s.GetPlace(ctx, id)
	if err != nil {
		return VoiceState{}, err
	}
	return VoiceState{PlaceName: p.Name, SampleQuestions: SampleQuestions}, nil
}

// Ask answers a spoken or typed question. The answer is the same narration
// whatever the question is.
func (s *QueryService) Ask(ctx context.Context, id, question string) (VoiceAnswer, error) {
	p, err := s.GetPlace(ctx, id)
	if err != nil {
		return VoiceAnswer{}, err
	}
	return VoiceAnswer{
		PlaceName:  p.Name,
		Transcript: question,
		Response:   narrate(p),
		Speak:      true,
	}, nil
}

// Listen stands in for speech recognition and returns a canned transcript.
func (s *QueryService) Listen(ctx context.Context, id string) (VoiceAnswer, error) {
	return s.Ask(ctx, id, listenTranscript)
}

func narrate(p domain.Place) string {
	return fmt.Sprintf("The %s showcases magnificent %s architecture. Built in %s by %s, it represents the pinnacle of craftsmanship of its era. The intricate details and proportions make it one of India's most remarkable monuments.",
		p.Name, strings.ToLower(p.Materials), p.YearBuilt, p.Architect)
}
