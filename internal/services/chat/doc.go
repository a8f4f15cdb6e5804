// Package chat posts check-in messages to a Basecamp project.
package chat
