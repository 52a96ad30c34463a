package fragment

// ToolCountID is the id of the footer element showing the tool count.
const ToolCountID = "toolCount"

// updateToolCount resets the tool counter. Pages without one are left alone.
func (l *Loader) updateToolCount() bool {
	return l.doc.SetTextByID(ToolCountID, "0")
}
