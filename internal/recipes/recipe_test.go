package recipes

import (
	"encoding/json"
	"testing"
)

func TestRecipeDecodesMinimalDocument(t *testing.T) {
	var recipe Recipe
	if err := json.Unmarshal([]byte(`{"name":"Tacos","recipeIngredient":["tortilla","beef"]}`), &recipe); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if recipe.Name != "Tacos" {
		t.Fatalf("name = %q", recipe.Name)
	}
	if len(recipe.Ingredients) != 2 || recipe.Ingredients[1] != "beef" {
		t.Fatalf("ingredients = %v", recipe.Ingredients)
	}
}

func TestRecipeDecodesFullDocument(t *testing.T) {
	doc := `{
		"@context": "https://schema.org",
		"@type": "Recipe",
		"name": "Pancakes",
		"author": {"@type": "Person", "name": "Oma"},
		"totalTime": "PT30M",
		"recipeYield": 4,
		"keywords": "breakfast, sweet , ",
		"nutrition": {"@type": "NutritionInformation", "calories": "250 kcal"},
		"recipeInstructions": [
			{"@type": "HowToSection", "name": "Batter", "itemListElement": [{"@type": "HowToStep", "text": "Mix."}]}
		]
	}`
	var recipe Recipe
	if err := json.Unmarshal([]byte(doc), &recipe); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if recipe.AuthorName() != "Oma" {
		t.Fatalf("author = %q", recipe.AuthorName())
	}
	if recipe.RecipeYield != "4" {
		t.Fatalf("yield = %q", recipe.RecipeYield)
	}
	keywords := recipe.Keywords()
	if len(keywords) != 2 || keywords[0] != "breakfast" || keywords[1] != "sweet" {
		t.Fatalf("keywords = %v", keywords)
	}
	if recipe.Nutrition == nil || recipe.Nutrition.Calories != "250 kcal" {
		t.Fatalf("nutrition = %+v", recipe.Nutrition)
	}
	if len(recipe.Instructions) != 1 || recipe.Instructions[0].Steps[0].Text != "Mix." {
		t.Fatalf("instructions = %+v", recipe.Instructions)
	}
}

func TestSetKeywordsWritesArray(t *testing.T) {
	recipe := Recipe{Name: "x"}
	recipe.SetKeywords([]string{"a", "b"})
	data, err := json.Marshal(recipe)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Keywords) != 2 || doc.Keywords[0] != "a" {
		t.Fatalf("keywords = %v", doc.Keywords)
	}
}

func TestFlexStringRejectsObjects(t *testing.T) {
	var f FlexString
	if err := json.Unmarshal([]byte(`{"a":1}`), &f); err == nil {
		t.Fatal("expected error for object")
	}
	if err := json.Unmarshal([]byte(`["2 loaves", 3]`), &f); err != nil || f != "2 loaves, 3" {
		t.Fatalf("list = %q err=%v", f, err)
	}
}

func TestParseRating(t *testing.T) {
	cases := map[string]Rating{"0": RatingUnknown, "love": RatingLove, " Like ": RatingLike, "1": RatingDislike}
	for input, want := range cases {
		got, ok := ParseRating(input)
		if !ok || got != want {
			t.Fatalf("ParseRating(%q) = %v, %v", input, got, ok)
		}
	}
	for _, input := range []string{"4", "-1", "meh", ""} {
		if _, ok := ParseRating(input); ok {
			t.Fatalf("ParseRating(%q) should fail", input)
		}
	}
}
