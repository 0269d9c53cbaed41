package models

// ClientPatch is a partial update of a Client. A nil field means the key is
// absent from the update and the existing value is kept.
type ClientPatch struct {
	Name           *string       `json:"name,omitempty"`
	Logo           *string       `json:"logo,omitempty"`
	BrandColor     *string       `json:"brandColor,omitempty"`
	ClientLead     *string       `json:"clientLead,omitempty"`
	TeamSize       *int          `json:"teamSize,omitempty"`
	PitchDate      *string       `json:"pitchDate,omitempty"`
	DateEngaged    *string       `json:"dateEngaged,omitempty"`
	Budget         *string       `json:"budget,omitempty"`
	Goals          *[]string     `json:"goals,omitempty"`
	CompanyProfile *string       `json:"companyProfile,omitempty"`
	ProjectScope   *string       `json:"projectScope,omitempty"`
	BoxURL         *string       `json:"boxUrl,omitempty"`
	KeyContacts    *[]KeyContact `json:"keyContacts,omitempty"`
	ActionItems    *[]ActionItem `json:"actionItems,omitempty"`
	Comments       *[]Comment    `json:"comments,omitempty"`
	BigIdeas       *[]Idea       `json:"bigIdeas,omitempty"`
	Documents      *[]Document   `json:"documents,omitempty"`
}

// IsEmpty reports whether the patch sets no field at all.
func (p ClientPatch) IsEmpty() bool {
	return p == ClientPatch{}
}

// Apply returns c with every field set in p overwritten. The id is never
// changed and c itself is not modified.
func (p ClientPatch) Apply(c Client) Client {
	out := c.Clone()
	setIf(&out.Name, p.Name)
	setIf(&out.Logo, p.Logo)
	setIf(&out.BrandColor, p.BrandColor)
	setIf(&out.ClientLead, p.ClientLead)
	setIf(&out.TeamSize, p.TeamSize)
	setIf(&out.PitchDate, p.PitchDate)
	setIf(&out.DateEngaged, p.DateEngaged)
	setIf(&out.Budget, p.Budget)
	setIf(&out.CompanyProfile, p.CompanyProfile)
	setIf(&out.ProjectScope, p.ProjectScope)
	setIf(&out.BoxURL, p.BoxURL)
	setSliceIf(&out.Goals, p.Goals)
	setSliceIf(&out.KeyContacts, p.KeyContacts)
	setSliceIf(&out.ActionItems, p.ActionItems)
	setSliceIf(&out.Comments, p.Comments)
	setSliceIf(&out.BigIdeas, p.BigIdeas)
	setSliceIf(&out.Documents, p.Documents)
	return out
}

// ClientPatchFromFields builds a patch from committed field edits. Only the
// free-text fields of a client can be edited this way; other names are ignored.
func ClientPatchFromFields(fields map[string]string) ClientPatch {
	var p ClientPatch
	for name, value := range fields {
		v := value
		switch name {
		case "name":
			p.Name = &v
		case "logo":
			p.Logo = &v
		case "brandColor":
			p.BrandColor = &v
		case "clientLead":
			p.ClientLead = &v
		case "pitchDate":
			p.PitchDate = &v
		case "dateEngaged":
			p.DateEngaged = &v
		case "budget":
			p.Budget = &v
		case "companyProfile":
			p.CompanyProfile = &v
		case "projectScope":
			p.ProjectScope = &v
		case "boxUrl":
			p.BoxURL = &v
		}
	}
	return p
}

// FieldValue returns the current value of an editable text field.
func FieldValue(c Client, name string) (string, bool) {
	switch name {
	case "name":
		return c.Name, true
	case "logo":
		return c.Logo, true
	case "brandColor":
		return c.BrandColor, true
	case "clientLead":
		return c.ClientLead, true
	case "pitchDate":
		return c.PitchDate, true
	case "dateEngaged":
		return c.DateEngaged, true
	case "budget":
		return c.Budget, true
	case "companyProfile":
		return c.CompanyProfile, true
	case "projectScope":
		return c.ProjectScope, true
	case "boxUrl":
		return c.BoxURL, true
	}
	return "", false
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setSliceIf[T any](dst *[]T, src *[]T) {
	if src != nil {
		*dst = cloneSlice(*src)
	}
}
