package commontypes

const (
	MethodCopyToClipboard = "copy_to_clipboard"
	MethodChangeQuery     = "Flow.Launcher.ChangeQuery"
)

// FlowResult is one menu item returned for a selection.
type FlowResult struct {
	Title            string            `json:"Title"`
	SubTitle         string            `json:"SubTitle"`
	IcoPath          string            `json:"IcoPath,omitempty"`
	Score            int               `json:"Score"`
	JsonRPCAction    JsonRPCAction     `json:"JsonRPCAction"`
	ContextMenuItems []ContextMenuItem `json:"ContextMenuItems,omitempty"`
}

// JsonRPCAction is the action the launcher runs when the item is chosen.
type JsonRPCAction struct {
	Method     string        `json:"method"`
	Parameters []interface{} `json:"parameters"`
}

type ContextMenuItem struct {
	Title         string        `json:"Title"`
	SubTitle      string        `json:"SubTitle"`
	IcoPath       string        `json:"IcoPath,omitempty"`
	JsonRPCAction JsonRPCAction `json:"JsonRPCAction"`
}

// CopyAction copies text to the clipboard.
func CopyAction(text string) JsonRPCAction {
	return JsonRPCAction{
		Method:     MethodCopyToClipboard,
		Parameters: []interface{}{text},
	}
}

// ChangeQueryAction replaces the launcher query; requery re-runs it.
func ChangeQueryAction(query string, requery bool) JsonRPCAction {
	return JsonRPCAction{
		Method:     MethodChangeQuery,
		Parameters: []interface{}{query, requery},
	}
}
