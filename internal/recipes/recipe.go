package recipes

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Recipe is the structured, schema.org-shaped recipe produced by extraction.
type Recipe struct {
	Context      string               `json:"@context,omitempty"`
	Type         string               `json:"@type,omitempty"`
	Name         string               `json:"name"`
	Author       json.RawMessage      `json:"author,omitempty"`
	Description  string               `json:"description,omitempty"`
	TotalTime    FlexString           `json:"totalTime,omitempty"`
	RecipeYield  FlexString           `json:"recipeYield,omitempty"`
	RawKeywords  json.RawMessage      `json:"keywords,omitempty"`
	Ingredients  []string             `json:"recipeIngredient,omitempty"`
	Nutrition    *Nutrition           `json:"nutrition,omitempty"`
	Instructions []InstructionSection `json:"recipeInstructions,omitempty"`
}

// Nutrition holds free-form nutrient amounts such as "12 g".
type Nutrition struct {
	Type                string `json:"@type,omitempty"`
	Calories            string `json:"calories,omitempty"`
	FatContent          string `json:"fatContent,omitempty"`
	SaturatedFatContent string `json:"saturatedFatContent,omitempty"`
	TransFatContent     string `json:"transFatContent,omitempty"`
	CholesterolContent  string `json:"cholesterolContent,omitempty"`
	SodiumContent       string `json:"sodiumContent,omitempty"`
	CarbohydrateContent string `json:"carbohydrateContent,omitempty"`
	FiberContent        string `json:"fiberContent,omitempty"`
	SugarContent        string `json:"sugarContent,omitempty"`
	ProteinContent      string `json:"proteinContent,omitempty"`
}

// InstructionSection is a named group of steps.
type InstructionSection struct {
	Type  string            `json:"@type,omitempty"`
	Name  string            `json:"name,omitempty"`
	Steps []InstructionStep `json:"itemListElement,omitempty"`
}

// InstructionStep is a single instruction.
type InstructionStep struct {
	Type string `json:"@type,omitempty"`
	Text string `json:"text,omitempty"`
}

// Keywords returns the keywords as a list. A comma separated string is split.
func (r *Recipe) Keywords() []string {
	if r == nil || len(bytes.TrimSpace(r.RawKeywords)) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(r.RawKeywords, &list); err == nil {
		return compact(list)
	}
	var joined string
	if err := json.Unmarshal(r.RawKeywords, &joined); err == nil {
		return compact(strings.Split(joined, ","))
	}
	return nil
}

// SetKeywords replaces the keywords with a JSON array.
func (r *Recipe) SetKeywords(keywords []string) {
	if keywords == nil {
		keywords = []string{}
	}
	data, _ := json.Marshal(keywords)
	r.RawKeywords = data
}

// AuthorName returns the author as text when it is a string or an object
// with a name.
func (r *Recipe) AuthorName() string {
	if r == nil || len(r.Author) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(r.Author, &name); err == nil {
		return strings.TrimSpace(name)
	}
	var person struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(r.Author, &person); err == nil {
		return strings.TrimSpace(person.Name)
	}
	return ""
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// FlexString decodes a JSON string, number, or list of strings into text.
// Models are inconsistent about "recipeYield": 4 versus "4 servings".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '[':
		var items []FlexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(string(item)); s != "" {
				parts = append(parts, s)
			}
		}
		*f = FlexString(strings.Join(parts, ", "))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
			return err
		}
		*f = FlexString(n.String())
	}
	return nil
}
