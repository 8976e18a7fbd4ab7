package crawler

// Selectors is the explicit extraction schema for the directory site.
// Keeping every CSS hook in one place isolates site-markup changes to
// configuration instead of spreading them across the parse code.
type Selectors struct {
	// Hierarchy page.
	DistrictList string `mapstructure:"district_list"`

	// Listing pages.
	ListingSection string `mapstructure:"listing_section"`
	StubHeading    string `mapstructure:"stub_heading"`
	StubAnchor     string `mapstructure:"stub_anchor"`
	NextPageLink   string `mapstructure:"next_page_link"`
	NextPageGlyph  string `mapstructure:"next_page_glyph"`
	NamePrefix     string `mapstructure:"name_prefix"`
	DismissButton  string `mapstructure:"dismiss_button"`

	// Detail pages.
	ReviewList        string `mapstructure:"review_list"`
	PhoneItem         string `mapstructure:"phone_item"`
	InfoTable         string `mapstructure:"info_table"`
	BusinessContainer string `mapstructure:"business_container"`
	BusinessTitle     string `mapstructure:"business_title"`
	CodeLabel         string `mapstructure:"code_label"`
	RepresentativeRow string `mapstructure:"representative_row"`
	EstablishedRow    string `mapstructure:"established_row"`
}

// DefaultSelectors matches the directory markup as it ships today.
func DefaultSelectors() Selectors {
	return Selectors{
		DistrictList:      "ul.list-districts-wards-paging",
		ListingSection:    "div.main-content-paging",
		StubHeading:       "h2",
		StubAnchor:        "h2 > a",
		NextPageLink:      "a.page-link",
		NextPageGlyph:     "»",
		NamePrefix:        "CÔNG ",
		DismissButton:     "#dismiss-button",
		ReviewList:        "ul.content-review-paging",
		PhoneItem:         "li.phone-review-paging",
		InfoTable:         "table.table-info",
		BusinessContainer: "div.box-business-view",
		BusinessTitle:     "h3.title-business-view",
		CodeLabel:         "MST:",
		RepresentativeRow: "Đại diện pháp luật:",
		EstablishedRow:    "Ngày thành lập:",
	}
}
