// Package communication renders client message templates and routes
// notifications to email, SMS, push and in-app channels according to each
// user's preferences and quiet hours.
package communication

const UserAgent = "InteractiveSolutions/GoCommunicationHub-1.0"
