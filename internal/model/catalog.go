package model

// Categories is the fixed catalog list products are filed under.
var Categories = []string{
	"Dairy, Bread and Eggs",
	"Cold Drink and Juices",
	"Snack and Munchies",
	"Breakfast and Instant Food",
	"Sweet Tooth",
	"Bakery and Biscuits",
	"Tea, Coffee and Milk Drinks",
	"Atta, Rice and Dal",
	"Masala, Oil and More",
	"Sauces and Spreads",
	"Baby Care",
	"Cleaning Essentials",
	"Personal Care",
	"Home and Office",
}

var categorySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

// IsValidCategory reports whether name is one of Categories.
func IsValidCategory(name string) bool {
	_, ok := categorySet[name]
	return ok
}
