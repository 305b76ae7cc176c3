// Package nutrition provides the label-to-nutrition lookup table used to
// attribute calories, fats and protein to detected food items.
package nutrition

import "strings"

// Food holds per-serving nutritional values for one canonical food label.
type Food struct {
	Calories float64
	Protein  float64
	Fats     float64
}

// foods maps canonical food labels to their nutritional values.
var foods = map[string]Food{
	"apple":             {Calories: 95, Protein: 0.5, Fats: 0.3},
	"banana":            {Calories: 105, Protein: 1.3, Fats: 0.4},
	"burger_beef":       {Calories: 354, Protein: 25, Fats: 20},
	"burger_chicken":    {Calories: 300, Protein: 22, Fats: 15},
	"pizza":             {Calories: 285, Protein: 12, Fats: 10},
	"cake":              {Calories: 235, Protein: 3, Fats: 8},
	"sandwich":          {Calories: 250, Protein: 12, Fats: 8},
	"french_fries":      {Calories: 365, Protein: 4, Fats: 17},
	"fried_chicken":     {Calories: 246, Protein: 19, Fats: 15},
	"chow_mein":         {Calories: 281, Protein: 14, Fats: 10},
	"boiled_egg":        {Calories: 77, Protein: 6, Fats: 5},
	"donut":             {Calories: 195, Protein: 2, Fats: 11},
	"salad":             {Calories: 152, Protein: 8, Fats: 12},
	"sushi":             {Calories: 200, Protein: 9, Fats: 7},
	"steak":             {Calories: 679, Protein: 62, Fats: 45},
	"appam":             {Calories: 110, Protein: 2, Fats: 1},
	"beetroot_poriyal":  {Calories: 85, Protein: 3, Fats: 4},
	"carrot_poriyal":    {Calories: 75, Protein: 2, Fats: 3},
	"chicken_65":        {Calories: 280, Protein: 20, Fats: 18},
	"chicken_briyani":   {Calories: 320, Protein: 18, Fats: 12},
	"dosa":              {Calories: 168, Protein: 4, Fats: 8},
	"idly":              {Calories: 58, Protein: 2, Fats: 0.5},
	"kaara_chutney":     {Calories: 45, Protein: 1, Fats: 2},
	"kali":              {Calories: 180, Protein: 4, Fats: 8},
	"koozh":             {Calories: 120, Protein: 3, Fats: 2},
	"lemon_satham":      {Calories: 200, Protein: 4, Fats: 6},
	"medu_vadai":        {Calories: 150, Protein: 6, Fats: 8},
	"mushroom_briyani":  {Calories: 290, Protein: 12, Fats: 10},
	"mutton_briyani":    {Calories: 380, Protein: 22, Fats: 15},
	"nandu_masala":      {Calories: 220, Protein: 18, Fats: 12},
	"nei_satham":        {Calories: 250, Protein: 5, Fats: 12},
	"paal_kolukattai":   {Calories: 140, Protein: 4, Fats: 6},
	"paneer_briyani":    {Calories: 310, Protein: 15, Fats: 14},
	"paneer_masala":     {Calories: 260, Protein: 14, Fats: 18},
	"parupu_vadai":      {Calories: 130, Protein: 5, Fats: 6},
	"pidi_kolukattai":   {Calories: 125, Protein: 3, Fats: 4},
	"poorna_kolukattai": {Calories: 160, Protein: 4, Fats: 6},
	"prawn_thokku":      {Calories: 180, Protein: 16, Fats: 8},
	"puthina_chutney":   {Calories: 40, Protein: 1, Fats: 1},
	"sambar":            {Calories: 95, Protein: 4, Fats: 3},
	"sambar_satham":     {Calories: 220, Protein: 6, Fats: 5},
	"satham":            {Calories: 205, Protein: 4, Fats: 0.5},
	"thengai_chutney":   {Calories: 65, Protein: 1, Fats: 6},
	"veg_briyani":       {Calories: 270, Protein: 8, Fats: 8},
	"ven_pongal":        {Calories: 190, Protein: 5, Fats: 7},
}

// synonyms maps common alternate names to canonical labels.
var synonyms = map[string]string{
	"burger":         "burger_beef",
	"beef_burger":    "burger_beef",
	"chicken_burger": "burger_chicken",
	"fries":          "french_fries",
	"chips":          "french_fries",
	"doughnut":       "donut",
}

// Canonicalize normalizes a detector class name to its canonical label.
func Canonicalize(label string) string {
	if label == "" {
		return label
	}
	n := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(label)), " ", "_")
	if canonical, ok := synonyms[n]; ok {
		return canonical
	}
	return n
}

// Lookup returns the nutritional values for a canonical label.
func Lookup(canonical string) (Food, bool) {
	food, ok := foods[canonical]
	return food, ok
}

// Resolve canonicalizes a label and returns its nutritional values. Labels
// absent from the table resolve to zero values rather than an error, so an
// unknown food contributes nothing to the totals.
func Resolve(label string) Food {
	food, _ := Lookup(Canonicalize(label))
	return food
}

// Known reports whether a label resolves to an entry in the table.
func Known(label string) bool {
	_, ok := Lookup(Canonicalize(label))
	return ok
}
