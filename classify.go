package main

import "strings"

// Category is the output folder a series is routed to.
type Category string

const (
	CategoryCTPre      Category = "CT_Pre"
	CategoryCTPost     Category = "CT_Post"
	CategoryCTA        Category = "CTA"
	CategoryMRIT1      Category = "MRI_T1"
	CategoryElectrodes Category = "Electrode_Trajectories"
	CategorySkipped    Category = "Skipped"
)

// Skip reasons
const (
	ReasonNoReadableFile    = "no readable DICOM file found"
	ReasonNoModality        = "modality not found"
	ReasonSEGNoTrajectories = "SEG without trajectory description"
	ReasonMRNoT1            = "MR without T1 marker"
	ReasonUnsupported       = "unsupported modality"
)

// IsVolume reports whether series of this category are converted to NIfTI.
func (c Category) IsVolume() bool {
	switch c {
	case CategoryCTPre, CategoryCTPost, CategoryCTA, CategoryMRIT1:
		return true
	}
	return false
}

// Classify maps (Modality, SeriesDescription) to a category. The reason is
// only set for CategorySkipped. Matching is case-insensitive, and the
// angiography check runs before the post-contrast one.
func Classify(modality, description string) (Category, string) {
	mod := strings.ToUpper(strings.TrimSpace(modality))
	desc := strings.ToLower(description)

	switch mod {
	case "":
		return CategorySkipped, ReasonNoModality
	case "SEG":
		if strings.Contains(desc, "points and trajectories") {
			return CategoryElectrodes, ""
		}
		return CategorySkipped, ReasonSEGNoTrajectories
	case "CT":
		switch {
		case strings.Contains(desc, "cta"), strings.Contains(desc, "angio"):
			return CategoryCTA, ""
		case strings.Contains(desc, "post"):
			return CategoryCTPost, ""
		default:
			return CategoryCTPre, ""
		}
	case "MR":
		if strings.Contains(desc, "t1") {
			return CategoryMRIT1, ""
		}
		return CategorySkipped, ReasonMRNoT1
	default:
		return CategorySkipped, ReasonUnsupported
	}
}
