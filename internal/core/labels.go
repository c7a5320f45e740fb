package core

// Color is a display tone.
type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

// Label is the verdict shown for a verified address.
type Label struct {
	Text  string `json:"text"`
	Color Color  `json:"color"`
}

// LabelFor maps a verification row to its verdict. Unknown statuses are
// treated like invalid ones.
func LabelFor(row VerificationRow) Label {
	switch row.Status {
	case StatusValid:
		return Label{Text: "Good", Color: ColorGreen}
	case StatusAcceptAll:
		return Label{Text: "Risky (Catch-all)", Color: ColorYellow}
	}

	if row.BounceType != nil {
		switch *row.BounceType {
		case BounceHard:
			return Label{Text: "Bad", Color: ColorRed}
		case BounceSoft:
			return Label{Text: "Risky", Color: ColorYellow}
		}
	}
	return Label{Text: "Bad", Color: ColorRed}
}

// StatusBadge is the short status text used in result tables.
func StatusBadge(status VerificationStatus) Label {
	switch status {
	case StatusValid:
		return Label{Text: "Valid", Color: ColorGreen}
	case StatusAcceptAll:
		return Label{Text: "Accept All", Color: ColorYellow}
	default:
		return Label{Text: "Invalid", Color: ColorRed}
	}
}
