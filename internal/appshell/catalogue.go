package appshell

// NavLink is one entry of the embedded app's navigation menu.
type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Home  bool   `json:"home,omitempty"`
}

var nav = []NavLink{
	{Label: "Home", Path: "/app", Home: true},
	{Label: "Set-up BoostCart", Path: "/app/offers-settings"},
	{Label: "Set-up Bundle-Card", Path: "/app/setup-bundlecard"},
	{Label: "Set-up Pack Builder", Path: "/app/setup-packbuilder"},
	{Label: "Set-up Ultimate Pack", Path: "/app/setup-ultimatepack"},
	{Label: "Support client", Path: "/app/support"},
	{Label: "Plans & Facturation", Path: "/app/plans"},
}

const statusActive = "active"

// Extension is a theme app extension shipped by the bundle. Feature names the settings
// page that configures it.
type Extension struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Status      string   `json:"status"`
	Feature     string   `json:"settingsFeature"`
	SetupPath   string   `json:"setupPath"`
}

var extensions = []Extension{
	{
		ID:          "boostcart",
		Name:        "BoostCart",
		Description: "Drawer de panier intelligent avec offres progressives",
		Features: []string{
			"Barre de progression avec paliers de réduction",
			"Produits offerts automatiques selon le montant",
			"Section produits complémentaires",
			"Codes de réduction intégrés",
			"Messages d'annonce personnalisés",
			"Design entièrement personnalisable",
		},
		Status:    statusActive,
		Feature:   "offers",
		SetupPath: "/app/offers-settings",
	},
	{
		ID:          "bundle",
		Name:        "Pack Builder",
		Description: "Créateur de packs avec sélection de variantes",
		Features: []string{
			"Sélection interactive de variantes",
			"Toast notifications élégants",
			"Validation intelligente des choix",
			"Intégration parfaite avec le thème",
			"Propriétés de panier personnalisées",
			"Messages de validation configurables",
		},
		Status:    statusActive,
		Feature:   "packbuilder",
		SetupPath: "/app/setup-packbuilder",
	},
	{
		ID:          "pack-cartes",
		Name:        "Pack Bundle-card",
		Description: "Affichage des variantes sous forme de cartes élégantes",
		Features: []string{
			"Cartes visuelles pour chaque variante",
			"Badges personnalisables par variante",
			"Prix barrés automatiques",
			"Métadonnées produit (poids, doses)",
			"Sélection par défaut configurable",
			"Design responsive et moderne",
		},
		Status:    statusActive,
		Feature:   "bundlecards",
		SetupPath: "/app/setup-bundlecard",
	},
	{
		ID:          "ultimatepack",
		Name:        "Ultimate pack",
		Description: "Constructeur de pack interactif avec paliers de réduction",
		Features: []string{
			"Interface de construction de pack intuitive",
			"Système de paliers avec réductions progressives",
			"Sauvegarde automatique de la sélection",
			"Calcul de livraison offerte en temps réel",
			"Groupage intelligent dans le panier",
			"Optimisé mobile avec animations",
		},
		Status:    statusActive,
		Feature:   "ultimatepack",
		SetupPath: "/app/setup-ultimatepack",
	},
}

// Extensions returns a copy of the catalogue.
func Extensions() []Extension {
	out := make([]Extension, len(extensions))
	copy(out, extensions)
	return out
}
