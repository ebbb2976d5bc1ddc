package world

// Cell codes used by the default catalog.
const (
	CodeWall     byte = '#'
	CodeFloor    byte = '.'
	CodeEntrance byte = 'E'
	CodeCheckout byte = 'X'
)

// CheckoutCategory is the target category an agent seeks once its list is empty.
const CheckoutCategory = "Checkout"

// CellSpec describes what a single layout code means.
type CellSpec struct {
	Kind     CellKind
	Category string // Only set for KindShelf
}

// Catalog maps layout codes to cell specs.
type Catalog map[byte]CellSpec

// PerimeterCodes are the anchor departments placed along the store walls.
var PerimeterCodes = []byte{'M', 'D', 'P', 'B', 'Z'}

// VarietyCodes are the center-store aisle products, in generator stripe order.
var VarietyCodes = []byte{'c', 'j', 's', 'p', 'S', 'C', 'k', 'o', 'w', 'h', 'F', 'b', 't', 'V'}

// DefaultCatalog returns the standard grocery code table.
func DefaultCatalog() Catalog {
	return Catalog{
		CodeWall:     {Kind: KindWall},
		CodeFloor:    {Kind: KindFloor},
		CodeEntrance: {Kind: KindEntrance},
		CodeCheckout: {Kind: KindCheckout},

		// Perimeter
		'M': shelf("Meat"),
		'D': shelf("Dairy"),
		'P': shelf("Produce"),
		'B': shelf("Bakery"),
		'Z': shelf("Frozen"),

		// Center store
		'c': shelf("Cereal"),
		'j': shelf("Juice"),
		's': shelf("Soda"),
		'p': shelf("Pasta"),
		'S': shelf("Sauce"),
		'C': shelf("Chips"),
		'k': shelf("Cookies"),
		'o': shelf("Oil/Condiments"),
		'w': shelf("Water"),
		'h': shelf("Household"),
		'F': shelf("Pet Food"),
		'b': shelf("Baby"),
		't': shelf("Tea/Coffee"),
		'V': shelf("Canned Veg"),
	}
}

func shelf(category string) CellSpec {
	return CellSpec{Kind: KindShelf, Category: category}
}

// CategoryOf returns the shelf category for a code, or "" if the code is not a shelf.
func (c Catalog) CategoryOf(code byte) string {
	spec, ok := c[code]
	if !ok || spec.Kind != KindShelf {
		return ""
	}
	return spec.Category
}

// Categories returns the shelf categories for the given codes, skipping non-shelf codes.
func (c Catalog) Categories(codes []byte) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if cat := c.CategoryOf(code); cat != "" {
			out = append(out, cat)
		}
	}
	return out
}
