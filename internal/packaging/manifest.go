package packaging

import (
	"encoding/xml"
	"fmt"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

// IMS Content Packaging manifest for a single-SCO SCORM 2004 package, with
// one sequencing objective per topic carrying a minimum normalized mastery
// score derived from the topic pass rule.

type imsManifest struct {
	XMLName       xml.Name `xml:"manifest"`
	Identifier    string   `xml:"identifier,attr"`
	Version       string   `xml:"version,attr"`
	Xmlns         string   `xml:"xmlns,attr"`
	XmlnsADLCP    string   `xml:"xmlns:adlcp,attr"`
	XmlnsIMSSS    string   `xml:"xmlns:imsss,attr"`
	Metadata      imsMetadata
	Organizations imsOrganizations `xml:"organizations"`
	Resources     []imsResource    `xml:"resources>resource"`
}

type imsMetadata struct {
	XMLName       xml.Name `xml:"metadata"`
	Schema        string   `xml:"schema"`
	SchemaVersion string   `xml:"schemaversion"`
}

type imsOrganizations struct {
	Default      string          `xml:"default,attr"`
	Organization imsOrganization `xml:"organization"`
}

type imsOrganization struct {
	Identifier string  `xml:"identifier,attr"`
	Title      string  `xml:"title"`
	Item       imsItem `xml:"item"`
}

type imsItem struct {
	Identifier    string         `xml:"identifier,attr"`
	IdentifierRef string         `xml:"identifierref,attr"`
	Title         string         `xml:"title"`
	Sequencing    *imsSequencing `xml:"imsss:sequencing,omitempty"`
}

type imsSequencing struct {
	Objectives imsObjectives `xml:"imsss:objectives"`
}

type imsObjectives struct {
	Primary    imsPrimaryObjective `xml:"imsss:primaryObjective"`
	Objectives []imsObjective      `xml:"imsss:objective"`
}

type imsPrimaryObjective struct {
	ObjectiveID        string   `xml:"objectiveID,attr"`
	SatisfiedByMeasure bool     `xml:"satisfiedByMeasure,attr"`
	MinMeasure         *float64 `xml:"imsss:minNormalizedMeasure,omitempty"`
}

type imsObjective struct {
	ObjectiveID string   `xml:"objectiveID,attr"`
	MinMeasure  *float64 `xml:"imsss:minNormalizedMeasure,omitempty"`
}

type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	ScormType  string    `xml:"adlcp:scormType,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}

type imsFile struct {
	Href string `xml:"href,attr"`
}

// BuildManifest renders imsmanifest.xml for the definition. files lists
// every package-relative path the SCO resource ships.
func BuildManifest(def *quiz.TestDefinition, files []string) ([]byte, error) {
	item := imsItem{
		Identifier:    "ITEM-" + def.ID,
		IdentifierRef: "RES-" + def.ID,
		Title:         def.Title,
		Sequencing: &imsSequencing{
			Objectives: imsObjectives{
				Primary: imsPrimaryObjective{
					ObjectiveID:        "PRIMARY-" + def.ID,
					SatisfiedByMeasure: true,
					MinMeasure:         masteryMeasure(def.PassRule, totalDraw(def)),
				},
			},
		},
	}
	for _, t := range def.Topics {
		draw := t.DrawCount
		if draw <= 0 {
			draw = len(t.Questions)
		}
		item.Sequencing.Objectives.Objectives = append(item.Sequencing.Objectives.Objectives, imsObjective{
			ObjectiveID: "OBJ-" + t.TopicID,
			MinMeasure:  masteryMeasure(t.PassRule, draw),
		})
	}

	res := imsResource{
		Identifier: "RES-" + def.ID,
		Type:       "webcontent",
		ScormType:  "sco",
		Href:       "index.html",
	}
	for _, f := range files {
		res.Files = append(res.Files, imsFile{Href: f})
	}

	mf := imsManifest{
		Identifier: "MANIFEST-" + def.ID,
		Version:    "1",
		Xmlns:      "http://www.imsglobal.org/xsd/imscp_v1p1",
		XmlnsADLCP: "http://www.adlnet.org/xsd/adlcp_v1p3",
		XmlnsIMSSS: "http://www.imsglobal.org/xsd/imsss",
		Metadata: imsMetadata{
			Schema:        "ADL SCORM",
			SchemaVersion: "2004 3rd Edition",
		},
		Organizations: imsOrganizations{
			Default: "ORG-" + def.ID,
			Organization: imsOrganization{
				Identifier: "ORG-" + def.ID,
				Title:      def.Title,
				Item:       item,
			},
		},
		Resources: []imsResource{res},
	}

	b, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append([]byte(xml.Header), b...), nil
}

// masteryMeasure converts a pass rule into a normalized 0..1 mastery score:
// percent value/100, absolute value/draw. Nil when no rule applies.
func masteryMeasure(rule *quiz.PassRule, draw int) *float64 {
	if rule == nil {
		return nil
	}
	var m float64
	switch rule.Type {
	case quiz.ThresholdAbsolute:
		if draw <= 0 {
			return nil
		}
		m = rule.Value / float64(draw)
	default:
		m = rule.Value / 100
	}
	if m < 0 {
		m = 0
	}
	if m > 1 {
		m = 1
	}
	return &m
}

func totalDraw(def *quiz.TestDefinition) int {
	n := 0
	for _, t := range def.Topics {
		if t.DrawCount > 0 {
			n += t.DrawCount
		} else {
			n += len(t.Questions)
		}
	}
	return n
}
