package main

import (
	"fmt"
	"math"

	"tradedesk/offer"
)

type product struct {
	name        string
	category    string
	unit        string
	price       float64
	description string
	skuPrefix   string
}

var baseProducts = []product{
	{"Brykiet dębowy premium", "Fuel", "kg", 1.45, "Brykiet 8cm, worki 10kg", "BRY-OAK"},
	{"Deska tarasowa modrzew", "Timber", "m2", 74.50, "Ryflowana, klasa A", "WOOD-TAR"},
	{"Blacha trapezowa T18", "Steel", "m2", 32.00, "Ocynkowana, grubość 0.5mm", "STEEL-T18"},
	{"Rura stalowa 80mm", "Steel", "m", 18.40, "S235, szew zgrzewany", "PIPE-080"},
	{"Kruszywo granitowe 8-16", "Construction", "ton", 115.00, "Frakcja 8-16mm", "AGG-GRA"},
	{"Cement portlandzki CEM I 42,5R", "Construction", "kg", 0.68, "Worki 25kg", "CEM-425"},
	{"Siatka zbrojeniowa 150x150x6", "Steel", "m2", 14.80, "Ocynk, arkusz 2x3m", "REBAR-MESH"},
	{"Pellet słonecznikowy", "Fuel", "kg", 1.05, "Średnica 8mm", "PEL-SUN"},
	{"Rzepak wysokoolejowy", "Agricultural", "ton", 2200.00, "Wilgotność <8%", "CROP-RZE"},
	{"Pszenica konsumpcyjna", "Agricultural", "ton", 980.00, "Białko min. 12%", "CROP-PSZ"},
	{"Olej rzepakowy techniczny", "Chemical", "l", 5.40, "IBC 1000l", "OIL-RAP"},
	{"Granulat PP homo", "Plastics", "kg", 4.90, "MFR 12", "PP-HOMO"},
	{"Granulat PE-LD natural", "Plastics", "kg", 4.20, "Do folii", "PE-LD-NAT"},
	{"Palety drewniane EUR", "Logistics", "pcs", 32.00, "Certyfikat EPAL", "PAL-EUR"},
	{"Tkanina bawełniana 160g", "Textile", "m", 12.50, "Surowa bielona", "FAB-BAW"},
	{"Przędza poliestrowa 300D", "Textile", "kg", 7.10, "Do produkcji lin", "YARN-PES"},
	{"Śruby ocynk M12x60", "Hardware", "pcs", 0.45, "Klasa 8.8", "BOLT-M12"},
	{"Łożyska kulkowe 6204", "Hardware", "pcs", 6.30, "Z uszczelnieniem 2RS", "BRG-6204"},
	{"Kabel YDYp 3x2,5", "Electrical", "m", 3.20, "Do instalacji wewnętrznych", "CABLE-325"},
	{"Panel fotowoltaiczny 450W", "Electrical", "pcs", 710.00, "Mono perc", "PV-450"},
	{"Akumulator trakcyjny 200Ah", "Electrical", "pcs", 1290.00, "AGM, 12V", "BAT-200"},
	{"Silnik elektryczny 5.5kW", "Electrical", "pcs", 980.00, "IE3, 1450 obr./min", "MOTOR-55"},
	{"Farba epoksydowa przemysłowa", "Chemical", "kg", 23.00, "Dwuskładnikowa, RAL 7016", "PAINT-EPO"},
	{"Płyta OSB3 18mm", "Construction", "m2", 41.00, "Krawędź prosta", "OSB-18"},
	{"Kartony klapowe 600x400x400", "Packaging", "pcs", 2.10, "Tektura 5-warstwowa", "BOX-640"},
}

var locations = []string{
	"Warszawa", "Kraków", "Gdańsk", "Wrocław", "Poznań",
	"Łódź", "Katowice", "Rzeszów", "Białystok", "Lublin",
}

func strPtr(s string) *string { return &s }

// featuredOffers are listed first; the sample order is placed on the first one.
func featuredOffers() []offer.CreateParams {
	return []offer.CreateParams{
		{
			ProductName:     "Pellet sosnowy A1",
			ProductCategory: "Fuel",
			SKU:             strPtr("PEL-A1-25KG"),
			Description:     strPtr("Pellet 6mm, worki 25kg"),
			Quantity:        1000,
			UnitOfMeasure:   "kg",
			UnitPrice:       1.20,
			Currency:        "PLN",
			Location:        "Kraków",
		},
		{
			ProductName:     "Stal pręt 12mm",
			ProductCategory: "Steel",
			Description:     strPtr("Pręty zbrojeniowe"),
			Quantity:        500,
			UnitOfMeasure:   "pcs",
			UnitPrice:       9.99,
			Currency:        "PLN",
			Location:        "Katowice",
		},
	}
}

// generatedOffers builds a deterministic catalog of n offers cycling through
// the base products and locations.
func generatedOffers(n int) []offer.CreateParams {
	out := make([]offer.CreateParams, 0, n)
	for i := 0; i < n; i++ {
		base := baseProducts[i%len(baseProducts)]
		location := locations[i%len(locations)]
		price := math.Round(base.price*(1+float64(i%5)*0.05)*100) / 100

		out = append(out, offer.CreateParams{
			ProductName:     fmt.Sprintf("%s #%d", base.name, i+1),
			ProductCategory: base.category,
			SKU:             strPtr(fmt.Sprintf("%s-%03d", base.skuPrefix, i+1)),
			Description:     strPtr(fmt.Sprintf("%s Dostawa: %s.", base.description, location)),
			Quantity:        200 + 25*(i%20),
			UnitOfMeasure:   base.unit,
			UnitPrice:       price,
			Currency:        "PLN",
			Location:        location,
		})
	}
	return out
}
