package mq

const (
	ExchangeEvents  = "reminder.events"
	ExchangeDelayed = "scheduler.delayed"

	RoutingMissedDose   = "caregiver.alert.missed_dose"
	RoutingOverdueSweep = "scheduler.reminder.overdue"
	QueueMissedDoseSMS  = "notification.caregiver.missed_dose"
	QueueOverdueSweep   = "scheduler.reminder.overdue"
)

type binding struct {
	exchange, routingKey, queue string
}

var bindings = []binding{
	{ExchangeEvents, RoutingMissedDose, QueueMissedDoseSMS},
	{ExchangeDelayed, RoutingOverdueSweep, QueueOverdueSweep},
}
