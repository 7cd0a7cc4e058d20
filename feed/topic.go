package feed

import (
	"fmt"
	"regexp"
)

const topicSuffix = "location"

var sourceIDRegex = regexp.MustCompile(`^[\w-]+$`)

// ValidSourceID reports whether id can be carried in a Topic
func ValidSourceID(id string) bool {
	return sourceIDRegex.MatchString(id)
}

// Topic represents an AMQP routing key of a location feed
type Topic struct {
	sourceRegex *regexp.Regexp

	Value string
}

// GetSourceID returns the source identifier from the Topic value
func (t *Topic) GetSourceID() (string, error) {
	matches := t.sourceRegex.FindStringSubmatch(t.Value)

	if matches == nil {
		return "", fmt.Errorf("Topic: '%s' does not match topic regex", t.Value)
	}

	if len(matches) < 2 || matches[1] == "" {
		return "", fmt.Errorf("Topic: source not found in topic")
	}

	return matches[1], nil
}

// NewTopic constructs a new Topic
func NewTopic(value string) *Topic {
	return &Topic{
		sourceRegex: regexp.MustCompile(`^([\w-]+)\.` + topicSuffix + `$`),
		Value:       value,
	}
}

// TopicFor returns the Topic carrying the readings of a source
func TopicFor(source string) *Topic {
	return NewTopic(fmt.Sprintf("%s.%s", source, topicSuffix))
}
