package models

// Entry repräsentiert einen PDB-Eintrag. Natürlicher Schlüssel ist der
// 4-stellige, großgeschriebene PDB-Code.
type Entry struct {
	IDCode        string `json:"id_code" gorm:"primaryKey;size:4"`
	Header        string `json:"header" gorm:"size:255"`
	AccessionDate string `json:"accession_date" gorm:"size:20"` // Rohwert, kein Datums-Parsing
	Compound      string `json:"compound" gorm:"size:255"`

	// Resolution in Ångström. nil = unbekannt bzw. nicht anwendbar ("NOT"),
	// niemals 0 als Ersatzwert.
	Resolution *float64 `json:"resolution,omitempty"`

	ExpTypeID  *uint     `json:"exp_type_id,omitempty"`
	ExpType    *ExpType  `json:"exp_type,omitempty"`
	CompTypeID *uint     `json:"comp_type_id,omitempty"`
	CompType   *CompType `json:"comp_type,omitempty"`

	Authors   []Author   `json:"authors,omitempty" gorm:"many2many:author_has_entry"`
	Sources   []Source   `json:"sources,omitempty" gorm:"many2many:entry_has_source"`
	Sequences []Sequence `json:"sequences,omitempty" gorm:"foreignKey:IDCode;references:IDCode"`
}

// TableName gibt explizit den Tabellennamen an.
func (Entry) TableName() string {
	return "entries"
}
