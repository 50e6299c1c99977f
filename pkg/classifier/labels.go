package classifier

// Labels is the fixed taxonomy the leaf model was trained on. Every
// prediction must be one of these.
var Labels = []string{
	"Aloevera", "Amla", "Amruta_Balli", "Arali", "Ashoka", "Astma_weed", "Badipala", "Balloon_Vine", "Bamboo", "Beans",
	"Betel", "Brahmi", "Bringaraja", "camphor", "Caricature", "Castor", "Catharanthus", "Chakte", "Chilly",
	"Citron lime (herelikai)", "Coffee", "Common rue(naagdalli)", "Coriender", "Curry_Leaf", "Doddapatre",
	"Drumstick", "Ekka", "Eucalyptus", "Ganigale", "Ganike", "Gasagase", "Ginger", "Globe Amarnath", "Guava", "Henna",
	"Hibiscus", "Honge", "Insulin", "Jackfruit", "Jasmine", "kamakasturi", "Kambajala", "Kasambruga", "kepala",
	"Kohlrabi", "Lantana", "Lemon", "Lemon_grass", "Malabar_Nut", "Malabar_Spinach", "Mango", "Marigold", "Mint",
	"Neem", "Nelavembu", "Nerale", "Nooni", "Onion", "Padri", "Palak(Spinach)", "Pappaya", "Parijatha", "Pea",
	"Pepper", "Pomegranate", "Pumpkin", "Raddish", "Rose", "Sampige", "Sapota", "Seethaashoka", "Seethapala",
	"Spinach1", "Tamarind", "Taro", "Tecoma", "Thumbe", "Tomato", "Tulasi", "Turmeric",
}

var labelSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Labels))
	for _, l := range Labels {
		set[l] = struct{}{}
	}
	return set
}()

func IsKnownLabel(label string) bool {
	_, ok := labelSet[label]
	return ok
}
