package curriculum

// Module is a structured instructional module: topics, their subtopics, and
// the activity blocks taught under each subtopic.
type Module struct {
	Topics []Topic `json:"topics"`
}

// Topic is a unit of the module (e.g. "4 Matter").
type Topic struct {
	ID         string     `json:"topic_id,omitempty"`
	Title      string     `json:"topic_title,omitempty"`
	PageNumber string     `json:"page_number,omitempty"`
	SubTopics  []Subtopic `json:"sub_topics,omitempty"`
}

// Subtopic is a lesson-sized section of a topic (e.g. "4.1 States of Matter").
type Subtopic struct {
	ID          string               `json:"subtopic_id,omitempty"`
	Title       string               `json:"subtopic_title,omitempty"`
	Page        string               `json:"page,omitempty"`
	Blocks      []InstructionalBlock `json:"instructional_blocks,omitempty"`
	Competences []string             `json:"competences,omitempty"`
}

// InstructionalBlock is a single activity within a subtopic.
type InstructionalBlock struct {
	ActivityNumber string   `json:"activity_number,omitempty"`
	Page           string   `json:"page,omitempty"`
	Hook           string   `json:"hook,omitempty"`
	TeacherSteps   []string `json:"teacher_steps,omitempty"`
	LearnerTasks   []string `json:"learner_tasks,omitempty"`
	Examples       []string `json:"examples,omitempty"`
	ShortNotes     string   `json:"short_notes,omitempty"`
}

// Upstream module files disagree on field names, so each logical attribute
// lists its accepted spellings in priority order.

func (m *Module) UnmarshalJSON(data []byte) error {
	f, err := parseFields(data)
	if err != nil {
		return err
	}
	*m = Module{}
	return f.list(&m.Topics, "topics")
}

func (t *Topic) UnmarshalJSON(data []byte) error {
	f, err := parseFields(data)
	if err != nil {
		return err
	}
	*t = Topic{
		ID:         f.str("topic_id", "id"),
		Title:      f.str("topic_title", "title"),
		PageNumber: f.str("page_number", "page"),
	}
	return f.list(&t.SubTopics, "sub_topics", "subtopics")
}

func (s *Subtopic) UnmarshalJSON(data []byte) error {
	f, err := parseFields(data)
	if err != nil {
		return err
	}
	*s = Subtopic{
		ID:          f.str("subtopic_id", "id"),
		Title:       f.str("subtopic_title", "title"),
		Page:        f.str("page", "page_number"),
		Competences: f.strs("competences"),
	}
	return f.list(&s.Blocks, "instructional_blocks")
}

func (b *InstructionalBlock) UnmarshalJSON(data []byte) error {
	f, err := parseFields(data)
	if err != nil {
		return err
	}
	*b = InstructionalBlock{
		ActivityNumber: f.str("activity_number", "block_id"),
		Page:           f.str("page", "page_number"),
		Hook:           f.str("hook"),
		TeacherSteps:   f.strs("teacher_steps"),
		LearnerTasks:   f.strs("learner_tasks"),
		Examples:       f.strs("examples"),
		ShortNotes:     f.str("short_notes"),
	}
	return nil
}
