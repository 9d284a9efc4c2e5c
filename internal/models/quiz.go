package models

import "github.com/google/uuid"

// QuizWord is the prompt side of a meaning quiz.
type QuizWord struct {
	ID       uuid.UUID `json:"id"`
	Word     string    `json:"word"`
	Phonetic *string   `json:"phonetic"`
}

// QuizOption is one candidate meaning. ID is the word the meaning belongs to.
type QuizOption struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
}

// Quiz is a multiple-choice meaning question for one word.
type Quiz struct {
	Word    QuizWord     `json:"word"`
	Options []QuizOption `json:"options"`
}

// WordList is one page of the catalog.
type WordList struct {
	Words []Word `json:"words"`
	Total int    `json:"total"`
}
