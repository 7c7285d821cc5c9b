package entity

import "strings"

const MainFramePath = "main"

// Frame is one node of the page frame tree. Parent is the index of the
// parent frame in the slice returned by the browser, -1 for the main frame.
// OffsetX/OffsetY locate the frame's viewport in main-frame viewport CSS
// pixels.
type Frame struct {
	Index   int     `json:"index"`
	Parent  int     `json:"parent"`
	URL     string  `json:"url"`
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// FrameKey is the value identity of a frame.
type FrameKey struct {
	URL  string
	Name string
	Path string
}

func (f Frame) Key() FrameKey {
	return FrameKey{URL: f.URL, Name: f.Name, Path: f.Path}
}

func (f Frame) IsMain() bool {
	return f.Parent < 0
}

// Matches reports whether f is the frame a candidate was harvested from:
// same path, or same URL, or same non-empty name.
func (f Frame) Matches(k FrameKey) bool {
	if k.Path != "" && f.Path == k.Path && (k.URL == "" || f.URL == k.URL) {
		return true
	}
	if k.URL != "" && f.URL == k.URL {
		return true
	}
	return k.Name != "" && f.Name == k.Name
}

// ChildPath builds the path of a frame nested under parentPath.
func ChildPath(parentPath, name string) string {
	label := strings.TrimSpace(name)
	if label == "" {
		label = "iframe"
	}
	if parentPath == "" {
		parentPath = MainFramePath
	}
	return parentPath + "/" + label
}

// MainFrame returns the root of a frame list, or a synthetic main frame.
func MainFrame(frames []Frame) Frame {
	for _, f := range frames {
		if f.IsMain() {
			return f
		}
	}
	return Frame{Index: 0, Parent: -1, Path: MainFramePath}
}
