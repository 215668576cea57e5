package model

// Categories in model output order.
var categories = []string{
	"metal",
	"glass",
	"biological",
	"paper",
	"battery",
	"trash",
	"cardboard",
	"shoes",
	"clothes",
	"plastic",
}

// The deployed checkpoint was trained with its label indices permuted, so
// the names reported to clients are remapped from the model-native ones.
var displayNames = map[string]string{
	"metal":      "battery",
	"glass":      "biological",
	"biological": "cardboard",
	"paper":      "clothes",
	"battery":    "glass",
	"trash":      "metal",
	"cardboard":  "paper",
	"shoes":      "plastic",
	"clothes":    "shoes",
	"plastic":    "trash",
}

// Labels is the immutable category list together with its display remapping.
type Labels struct {
	classes []string
	mapping map[string]string
}

func NewLabels(classes []string, mapping map[string]string) *Labels {
	l := &Labels{
		classes: append([]string(nil), classes...),
		mapping: make(map[string]string, len(mapping)),
	}
	for k, v := range mapping {
		l.mapping[k] = v
	}
	return l
}

// DefaultLabels returns the waste categories and their display remapping.
func DefaultLabels() *Labels {
	return NewLabels(categories, displayNames)
}

func (l *Labels) Len() int {
	return len(l.classes)
}

func (l *Labels) Name(i int) string {
	return l.classes[i]
}

// Classes returns a copy of the model-native category names, untranslated.
func (l *Labels) Classes() []string {
	return append([]string(nil), l.classes...)
}

// Translate maps a model-native name to its display name. Names without an
// entry are returned unchanged.
func (l *Labels) Translate(name string) string {
	if mapped, ok := l.mapping[name]; ok {
		return mapped
	}
	return name
}
