package meta

import (
	"encoding/xml"
	"strings"
)

// descriptorXML mirrors the "module" element: group/artifact/version,
// optional lifecycle and entry-point class names, an optional parent
// stanza for inherited group/version/properties, inline properties, and
// the dependency list.
type descriptorXML struct {
	XMLName         xml.Name          `xml:"module"`
	Group           interpString      `xml:"group"`
	Artifact        interpString      `xml:"artifact"`
	Version         interpString      `xml:"version"`
	LifecycleClass  interpString      `xml:"lifecycle-class"`
	EntryPointClass interpString      `xml:"entry-point-class"`
	Properties      propertiesXML     `xml:"properties"`
	Parent          *parentXML        `xml:"parent"`
	Dependencies    []dependencyXML   `xml:"dependencies>dependency"`
}

type parentXML struct {
	Group      interpString  `xml:"group"`
	Artifact   interpString  `xml:"artifact"`
	Version    interpString  `xml:"version"`
	Properties propertiesXML `xml:"properties"`
}

type dependencyXML struct {
	Group    interpString `xml:"group"`
	Artifact interpString `xml:"artifact"`
	Version  interpString `xml:"version"`
	Scope    interpString `xml:"scope"`
	Optional boolXML      `xml:"optional"`
}

// interpString trims whitespace on unmarshal, the way maven.String does;
// it may still contain unresolved "${name}" placeholders until
// interpolated against a property map.
type interpString string

func (s *interpString) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var str string
	if err := d.DecodeElement(&str, &start); err != nil {
		return err
	}
	*s = interpString(strings.TrimSpace(str))
	return nil
}

// boolXML accepts "true"/"false" (case-insensitive) or an empty element,
// which defaults to false; it may also carry an unresolved placeholder.
type boolXML string

func (b *boolXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var str string
	if err := d.DecodeElement(&str, &start); err != nil {
		return err
	}
	*b = boolXML(strings.TrimSpace(str))
	return nil
}

func (b boolXML) resolved(properties map[string]string) (bool, bool) {
	s, ok := interpolate(string(b), properties)
	if !ok {
		return false, false
	}
	if s == "" {
		return false, true
	}
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// propertiesXML decodes a flat <properties><name>value</name>...</properties>
// block into ordered name/value pairs, the way maven.Properties does.
type propertiesXML struct {
	entries []propertyEntry
}

type propertyEntry struct {
	name, value string
}

func (p *propertiesXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			p.entries = append(p.entries, propertyEntry{name: t.Name.Local, value: strings.TrimSpace(v)})
		case xml.EndElement:
			return nil
		}
	}
}

func (p propertiesXML) asMap() map[string]string {
	m := make(map[string]string, len(p.entries))
	for _, e := range p.entries {
		m[e.name] = e.value
	}
	return m
}
