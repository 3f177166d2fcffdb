package assistant

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Action is a page action the model may request alongside its answer.
type Action string

const (
	ActionHighlight Action = "highlight"
	ActionNavigate  Action = "navigate"
)

const (
	// FallbackAnswer replaces a missing or empty answer in a parsed reply.
	FallbackAnswer = "I couldn't process your request properly."

	// ParseFailureAnswer is returned when the completion is not a JSON object.
	ParseFailureAnswer = "I received a response but couldn't parse it properly. Please try rephrasing your question."

	// ServiceFailureAnswer is returned when the completion endpoint could not be used.
	ServiceFailureAnswer = "I'm having trouble processing your request right now. Please check your API key and try again."

	// DefaultConfidence stands in for a missing or non-numeric confidence.
	DefaultConfidence = 0.5

	ParseFailureConfidence   = 0.3
	ServiceFailureConfidence = 0.1
)

// ErrUnparseable is returned by ParseResponse when the text is not a JSON object.
var ErrUnparseable = errors.New("completion is not a JSON object")

// Response is the assistant's answer to a query.
type Response struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
	Action     Action   `json:"action,omitempty"`
	Target     string   `json:"target,omitempty"`
}

// ConfidencePercent returns Confidence as a rounded percentage.
func (r Response) ConfidencePercent() int {
	return int(math.Round(r.Confidence * 100))
}

// HasAction reports whether the response asks for a page action with a target.
func (r Response) HasAction() bool {
	return r.Action != "" && r.Target != ""
}

// ParseFailure is the response for a completion that could not be parsed.
func ParseFailure() Response {
	return Response{Answer: ParseFailureAnswer, Confidence: ParseFailureConfidence, Sources: []string{}}
}

// ServiceFailure is the response for an unreachable or failing endpoint.
func ServiceFailure() Response {
	return Response{Answer: ServiceFailureAnswer, Confidence: ServiceFailureConfidence, Sources: []string{}}
}

// ParseResponse coerces completion text into a Response.
//
// The text must be a JSON object, optionally wrapped in a markdown code
// fence. Fields are read leniently: anything of the wrong type falls back
// to its default instead of failing the whole reply.
func ParseResponse(text string) (Response, error) {
	text = unwrapCodeFence(strings.TrimSpace(text))
	if !gjson.Valid(text) {
		return Response{}, ErrUnparseable
	}
	obj := gjson.Parse(text)
	if !obj.IsObject() {
		return Response{}, ErrUnparseable
	}

	resp := Response{
		Answer:     FallbackAnswer,
		Confidence: coerceConfidence(obj.Get("confidence")),
		Sources:    []string{},
	}

	if answer := obj.Get("answer"); answer.Type == gjson.String && answer.Str != "" {
		resp.Answer = answer.Str
	}

	if sources := obj.Get("sources"); sources.IsArray() {
		sources.ForEach(func(_, item gjson.Result) bool {
			if item.Type == gjson.String {
				resp.Sources = append(resp.Sources, item.Str)
			}
			return true
		})
	}

	if action := obj.Get("action"); action.Type == gjson.String {
		switch a := Action(strings.ToLower(strings.TrimSpace(action.Str))); a {
		case ActionHighlight, ActionNavigate:
			resp.Action = a
		}
	}

	if target := obj.Get("target"); target.Type == gjson.String && strings.TrimSpace(target.Str) != "" {
		resp.Target = target.Str
	}

	return resp, nil
}

// coerceConfidence reads a confidence in [0, 1]. Missing, unparsable and zero
// values all fall back to DefaultConfidence.
func coerceConfidence(v gjson.Result) float64 {
	var c float64
	switch v.Type {
	case gjson.Number:
		c = v.Num
	case gjson.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil && !math.IsNaN(f) {
			c = f
		}
	}
	if c == 0 {
		c = DefaultConfidence
	}
	return math.Min(math.Max(c, 0), 1)
}

// unwrapCodeFence strips a surrounding ``` fence, with or without a language tag.
func unwrapCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := strings.TrimSuffix(text[3:], "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		inner = inner[nl+1:]
	} else {
		inner = strings.TrimPrefix(inner, "json")
	}
	return strings.TrimSpace(inner)
}
