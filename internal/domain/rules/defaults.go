package rules

// DefaultRules is the compiled-in rule table used when the store is empty and
// by the reset operation. Weights mirror the KYC scoring grid supplied by the
// risk team.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Forme Juridique du B.EFFECTIF", Item: "SA", Weight: 0},
		{Category: "Forme Juridique du B.EFFECTIF", Item: "SUARL", Weight: 0},
		{Category: "Forme Juridique du B.EFFECTIF", Item: "SARL", Weight: 0},
		{Category: "Forme Juridique du B.EFFECTIF", Item: "Société Personne Physique", Weight: 2},
		{Category: "Forme Juridique du B.EFFECTIF", Item: "ONG", Weight: 5},
		{Category: "Forme Juridique du B.EFFECTIF", Item: "Autres", Weight: 5},

		{Category: "Raison de financement", Item: "Matériels et Equipements", Weight: 0},
		{Category: "Raison de financement", Item: "Moyens de transport", Weight: 15},
		{Category: "Raison de financement", Item: "Marchandises", Weight: 0},
		{Category: "Raison de financement", Item: "Produits agricoles", Weight: 7.5},
		{Category: "Raison de financement", Item: "Produits d'élevage", Weight: 10},
		{Category: "Raison de financement", Item: "Rénovation et amenagement", Weight: 2.5},
		{Category: "Raison de financement", Item: "Services", Weight: 2.5},

		{Category: "Genre", Item: "M", Weight: 2},
		{Category: "Genre", Item: "F", Weight: 1},

		{Category: "Situation familiale", Item: "Veuf", Weight: 1},
		{Category: "Situation familiale", Item: "Marié", Weight: 0},
		{Category: "Situation familiale", Item: "Célibataire", Weight: 5},
		{Category: "Situation familiale", Item: "Divorcé", Weight: 2},

		{Category: "Région", Item: "ARIANA", Weight: 10},
		{Category: "Région", Item: "BEJA", Weight: 5},
		{Category: "Région", Item: "BEN AROUS", Weight: 10},
		{Category: "Région", Item: "BIZERTE", Weight: 10},
		{Category: "Région", Item: "GABES", Weight: 15},
		{Category: "Région", Item: "GAFSA", Weight: 20},
		{Category: "Région", Item: "JENDOUBA", Weight: 20},
		{Category: "Région", Item: "KAIROUAN", Weight: 10},
		{Category: "Région", Item: "KASSERINE", Weight: 20},
		{Category: "Région", Item: "MAHDIA", Weight: 15},
		{Category: "Région", Item: "MEDENINE", Weight: 15},
		{Category: "Région", Item: "MONASTIR", Weight: 5},
		{Category: "Région", Item: "NABEUL", Weight: 5},
		{Category: "Région", Item: "SFAX", Weight: 15},
		{Category: "Région", Item: "SIDI BOUZID", Weight: 15},
		{Category: "Région", Item: "SOUSSE", Weight: 10},
		{Category: "Région", Item: "TUNIS", Weight: 5},
		{Category: "Région", Item: "ZAGHOUAN", Weight: 5},

		{Category: "Secteur d'activité", Item: "Agriculture", Weight: 5},
		{Category: "Secteur d'activité", Item: "Artisanat", Weight: 3},
		{Category: "Secteur d'activité", Item: "Commerce", Weight: 4},
		{Category: "Secteur d'activité", Item: "Education", Weight: 0},
		{Category: "Secteur d'activité", Item: "Elevage", Weight: 7},
		{Category: "Secteur d'activité", Item: "Pêche", Weight: 10},
		{Category: "Secteur d'activité", Item: "Production", Weight: 4},
		{Category: "Secteur d'activité", Item: "Services", Weight: 5},

		{Category: "Niveau d'étude", Item: "Analphabète", Weight: 5},
		{Category: "Niveau d'étude", Item: "Primaire", Weight: 3},
		{Category: "Niveau d'étude", Item: "Secondaire", Weight: 1},
		{Category: "Niveau d'étude", Item: "Supérieur", Weight: 0},

		{Category: "Type de logement", Item: "Propriétaire", Weight: 0},
		{Category: "Type de logement", Item: "Locataire", Weight: 5},
		{Category: "Type de logement", Item: "Logé gratuitement", Weight: 5},

		{Category: "Couverture sociale", Item: "Oui", Weight: 0},
		{Category: "Couverture sociale", Item: "Non", Weight: 2},

		{Category: "Résident", Item: "Oui", Weight: 1},
		{Category: "Résident", Item: "Non", Weight: 3},

		{Category: "Patenté", Item: "Oui", Weight: 0},
		{Category: "Patenté", Item: "Non", Weight: 2},

		{Category: "Type d'activité", Item: "Formel", Weight: 1},
		{Category: "Type d'activité", Item: "Informel", Weight: 2},
	}
}
