package assistant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IntentSpec is the YAML file that carries the entry keywords and the fixed
// prompt appended when a collection starts.
type IntentSpec struct {
	Order       IntentSection `yaml:"order"`
	Reservation IntentSection `yaml:"reservation"`
}

type IntentSection struct {
	Keywords []string `yaml:"keywords"`
	Prompt   string   `yaml:"prompt"`
}

func DefaultIntentSpec() IntentSpec {
	return IntentSpec{
		Order: IntentSection{
			Keywords: []string{"order", "place an order", "i want", "can i have", "give me", "get me", "buy", "purchase"},
			Prompt:   "I'll help you place an order! Which items would you like?",
		},
		Reservation: IntentSection{
			Keywords: []string{"reservation", "reserve", "book", "table", "booking", "dinner reservation", "lunch reservation"},
			Prompt:   "I'll help you make a reservation! What's your name?",
		},
	}
}

// LoadIntentSpec reads path. Sections or fields left empty in the file fall
// back to DefaultIntentSpec.
func LoadIntentSpec(path string) (IntentSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return IntentSpec{}, err
	}
	var spec IntentSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return IntentSpec{}, fmt.Errorf("parse intent spec %s: %w", path, err)
	}
	def := DefaultIntentSpec()
	spec.Order = spec.Order.withDefaults(def.Order)
	spec.Reservation = spec.Reservation.withDefaults(def.Reservation)
	return spec, nil
}

func (s IntentSection) withDefaults(def IntentSection) IntentSection {
	if len(s.Keywords) == 0 {
		s.Keywords = def.Keywords
	}
	if s.Prompt == "" {
		s.Prompt = def.Prompt
	}
	return s
}

func (s IntentSpec) Classifier() *Classifier {
	return NewClassifier(s.Order.Keywords, s.Reservation.Keywords)
}
