package match

import "strings"

// SplitPath splits a URL path template into segments, ignoring empty ones.
// "/pets/{id}/" -> ["pets", "{id}"].
func SplitPath(p string) []string {
	var segments []string

	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	return segments
}

// IsParamSegment reports whether a path segment is a template parameter,
// in either "{id}" or ":id" form.
func IsParamSegment(seg string) bool {
	if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
		return true
	}

	return strings.HasPrefix(seg, ":") && len(seg) > 1
}

// CrudRelated reports whether two endpoints operate on the same resource:
// a collection and its item ("/pets" and "/pets/{id}"), or two different
// methods on one path ("GET /pets" and "POST /pets"). Parameter names are
// ignored, so "/pets/{id}" and "/pets/{petId}" are the same path.
func CrudRelated(methodA, pathA, methodB, pathB string) bool {
	a := templateSegments(pathA)
	b := templateSegments(pathB)

	if len(a) > len(b) {
		a, b = b, a
	}

	switch len(b) - len(a) {
	case 0:
		return len(a) > 0 && equalSegments(a, b) && !strings.EqualFold(methodA, methodB)
	case 1:
		return len(a) > 0 && b[len(b)-1] == paramMarker && equalSegments(a, b[:len(a)])
	default:
		return false
	}
}

const paramMarker = "{}"

func templateSegments(p string) []string {
	segments := SplitPath(p)
	for i, seg := range segments {
		if IsParamSegment(seg) {
			segments[i] = paramMarker
		} else {
			segments[i] = strings.ToLower(seg)
		}
	}

	return segments
}

func equalSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
