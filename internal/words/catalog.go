package words

import "wordgame-service/domain"

var catalog = []domain.Word{
	{Text: "Apple", Category: "Fruit"},
	{Text: "Banana", Category: "Fruit"},
	{Text: "Carrot", Category: "Vegetable"},
	{Text: "Dragonfruit", Category: "Fruit"},
	{Text: "Eggplant", Category: "Vegetable"},
	{Text: "Fig", Category: "Fruit"},
	{Text: "Grape", Category: "Fruit"},
	{Text: "Honeydew", Category: "Fruit"},
	{Text: "Iceberg Lettuce", Category: "Vegetable"},
	{Text: "Jackfruit", Category: "Fruit"},
	{Text: "Kale", Category: "Vegetable"},
	{Text: "Lemon", Category: "Fruit"},
	{Text: "Mango", Category: "Fruit"},
	{Text: "Nectarine", Category: "Fruit"},
	{Text: "Olive", Category: "Fruit"},
	{Text: "Pepper", Category: "Vegetable"},
	{Text: "Quince", Category: "Fruit"},
	{Text: "Radish", Category: "Vegetable"},
	{Text: "Spinach", Category: "Vegetable"},
	{Text: "Tomato", Category: "Fruit"},
	{Text: "Ugli Fruit", Category: "Fruit"},
	{Text: "Zucchini", Category: "Vegetable"},

	{Text: "Cat", Category: "Animal"},
	{Text: "Dog", Category: "Animal"},
	{Text: "Elephant", Category: "Animal"},
	{Text: "Tiger", Category: "Animal"},
	{Text: "Bird", Category: "Animal"},
	{Text: "Fish", Category: "Animal"},
	{Text: "Horse", Category: "Animal"},
	{Text: "Cow", Category: "Animal"},

	{Text: "Avatar", Category: "Movie"},
	{Text: "Titanic", Category: "Movie"},
	{Text: "Batman", Category: "Movie"},
	{Text: "Superman", Category: "Movie"},
	{Text: "Star Wars", Category: "Movie"},

	{Text: "Football", Category: "Sport"},
	{Text: "Basketball", Category: "Sport"},
	{Text: "Tennis", Category: "Sport"},
	{Text: "Soccer", Category: "Sport"},
	{Text: "Baseball", Category: "Sport"},
	{Text: "Hockey", Category: "Sport"},
	{Text: "Golf", Category: "Sport"},
	{Text: "Cricket", Category: "Sport"},
	{Text: "Rugby", Category: "Sport"},
	{Text: "Swimming", Category: "Sport"},

	{Text: "Doctor", Category: "Profession"},
	{Text: "Teacher", Category: "Profession"},
	{Text: "Engineer", Category: "Profession"},
	{Text: "Artist", Category: "Profession"},
	{Text: "Chef", Category: "Profession"},
	{Text: "Pilot", Category: "Profession"},
	{Text: "Nurse", Category: "Profession"},
}

// Catalog returns a copy of the built-in word list.
func Catalog() []domain.Word {
	out := make([]domain.Word, len(catalog))
	copy(out, catalog)
	return out
}
