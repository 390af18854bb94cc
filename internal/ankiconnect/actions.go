package ankiconnect

// Action names one AnkiConnect operation. Every remote call the client makes
// has its own constant.
type Action string

const (
	ActionAddNote              Action = "addNote"
	ActionNotesInfo            Action = "notesInfo"
	ActionFindNotes            Action = "findNotes"
	ActionDeckNames            Action = "deckNames"
	ActionCreateDeck           Action = "createDeck"
	ActionUpdateNoteFields     Action = "updateNoteFields"
	ActionModelNames           Action = "modelNames"
	ActionModelFieldNames      Action = "modelFieldNames"
	ActionCreateModel          Action = "createModel"
	ActionModelTemplates       Action = "modelTemplates"
	ActionModelStyling         Action = "modelStyling"
	ActionUpdateModelTemplates Action = "updateModelTemplates"
	ActionUpdateModelStyling   Action = "updateModelStyling"
)

var knownActions = map[Action]struct{}{
	ActionAddNote:              {},
	ActionNotesInfo:            {},
	ActionFindNotes:            {},
	ActionDeckNames:            {},
	ActionCreateDeck:           {},
	ActionUpdateNoteFields:     {},
	ActionModelNames:           {},
	ActionModelFieldNames:      {},
	ActionCreateModel:          {},
	ActionModelTemplates:       {},
	ActionModelStyling:         {},
	ActionUpdateModelTemplates: {},
	ActionUpdateModelStyling:   {},
}

// Valid reports whether a is one of the actions above.
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

func (a Action) String() string {
	return string(a)
}

// APIVersion is the AnkiConnect protocol version sent with every request.
const APIVersion = 6

// Note field names of the chinese-tutor note type.
const (
	FieldChinese            = "Chinese"
	FieldPinyin             = "Pinyin"
	FieldEnglish            = "English"
	FieldSampleUsage        = "Sample Usage"
	FieldSampleUsageEnglish = "Sample Usage (English)"
	FieldRelatedWords       = "Related Words"
	FieldSampleUsageAudio   = "Sample Usage (Audio)"
)

// Fields lists every note field in display order.
var Fields = []string{
	FieldChinese,
	FieldPinyin,
	FieldEnglish,
	FieldSampleUsage,
	FieldSampleUsageEnglish,
	FieldRelatedWords,
	FieldSampleUsageAudio,
}

// RequiredFields are the text fields that must be non-blank on a healthy note.
var RequiredFields = []string{
	FieldChinese,
	FieldPinyin,
	FieldEnglish,
	FieldSampleUsage,
	FieldSampleUsageEnglish,
}

const (
	DefaultURL       = "http://localhost:8765"
	DefaultModelName = "chinese-tutor"
)
