package content

// #region raw
// RawQuestion is a question record as the content API returns it. Only the
// fields the formatter reads are decoded.
type RawQuestion struct {
	ID              string        `json:"_id"`
	QuestionType    string        `json:"questionType"`
	Subject         string        `json:"subject"`
	Chapter         string        `json:"chapter"`
	Difficulty      string        `json:"difficulty"`
	Level           string        `json:"level"`
	SCQ             *rawSCQ       `json:"scq"`
	MCQ             *rawMCQ       `json:"mcq"`
	IntegerQuestion *rawInteger   `json:"integerQuestion"`
	SmartTrick      bool          `json:"smartTrick"`
	Trap            bool          `json:"trap"`
	SillyMistake    bool          `json:"sillyMistake"`
	IsLengthy       int           `json:"isLengthy"`
	IsNCERT         bool          `json:"isNCERT"`
	TagSubConcept   []rawConcepts `json:"tagSubConcept"`
}

type rawSCQ struct {
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	Solution       string   `json:"solution"`
	QuesImages     []string `json:"quesImages"`
	SolutionImages []string `json:"solutionImages"`
}

type rawMCQ struct {
	Answer         []string `json:"answer"`
	QuesImages     []string `json:"quesImages"`
	SolutionImages []string `json:"solutionImages"`
}

type rawInteger struct {
	Answer         string   `json:"answer"`
	QuesImages     []string `json:"quesImages"`
	SolutionImages []string `json:"solutionImages"`
}

type rawConcepts struct {
	SubConcept string `json:"subConcept"`
}

// #endregion raw

// #region question
// QuestionType is the answer format of a content question.
type QuestionType string

const (
	TypeSingle  QuestionType = "scq"
	TypeMulti   QuestionType = "mcq"
	TypeInteger QuestionType = "integer"
)

// Option is one labelled answer choice.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Metadata carries the content API's pedagogical flags.
type Metadata struct {
	SmartTrick   bool     `json:"smart_trick"`
	Trap         bool     `json:"trap"`
	SillyMistake bool     `json:"silly_mistake,omitempty"`
	IsLengthy    int      `json:"is_lengthy,omitempty"`
	IsNCERT      bool     `json:"is_ncert,omitempty"`
	SubConcepts  []string `json:"tag_subconcepts,omitempty"`
}

// Question is the display-ready form served to the quiz front end.
type Question struct {
	ID             string       `json:"question_id"`
	Index          int          `json:"question_index"`
	Type           QuestionType `json:"question_type"`
	Subject        string       `json:"subject"`
	Chapter        string       `json:"chapter"`
	Difficulty     string       `json:"difficulty"`
	Level          string       `json:"level"`
	HTML           string       `json:"question_html"`
	Images         []string     `json:"question_images"`
	Options        []Option     `json:"options,omitempty"`
	CorrectAnswer  string       `json:"correct_answer,omitempty"`
	CorrectAnswers []string     `json:"correct_answers,omitempty"`
	SolutionHTML   string       `json:"solution_html"`
	SolutionImages []string     `json:"solution_images"`
	Metadata       Metadata     `json:"metadata"`
	Affinity       float64      `json:"personality_match,omitempty"`
}

// #endregion question
