package pumplog

// Class is a semantic grouping of concrete event types representing one
// user-facing concept. Membership is a static many-to-one mapping, not
// inferred.
type Class int

const (
	ClassBasal Class = iota + 1
	ClassBasalSuspension
	ClassBasalResume
	ClassAlarm
	ClassBolus
	ClassCartridge
	ClassCgmAlert
	ClassCgmSession
	ClassCgmReading
	ClassUserMode
	ClassDeviceStatus
)

func (c Class) String() string {
	switch c {
	case ClassBasal:
		return "basal"
	case ClassBasalSuspension:
		return "basal_suspension"
	case ClassBasalResume:
		return "basal_resume"
	case ClassAlarm:
		return "alarm"
	case ClassBolus:
		return "bolus"
	case ClassCartridge:
		return "cartridge"
	case ClassCgmAlert:
		return "cgm_alert"
	case ClassCgmSession:
		return "cgm_session"
	case ClassCgmReading:
		return "cgm_reading"
	case ClassUserMode:
		return "user_mode"
	case ClassDeviceStatus:
		return "device_status"
	}
	return "unclassified"
}

// classByEvent assigns event types to classes. Event ids not listed are
// decoded and counted but excluded from per-class processing.
var classByEvent = map[uint16]Class{
	EventBasalRateChange: ClassBasal,

	EventPumpingSuspended: ClassBasalSuspension,
	EventPumpingResumed:   ClassBasalResume,

	EventAlarmActivated: ClassAlarm,
	EventAlertActivated: ClassAlarm,

	EventBolusCompleted:     ClassBolus,
	EventBolexCompleted:     ClassBolus,
	EventBolusRequestedMsg1: ClassBolus,
	EventBolusRequestedMsg2: ClassBolus,
	EventBolusRequestedMsg3: ClassBolus,
	EventBolexActivated:     ClassBolus,

	EventCannulaFilled:   ClassCartridge,
	EventTubingFilled:    ClassCartridge,
	EventCartridgeFilled: ClassCartridge,

	EventCgmAlertActivated: ClassCgmAlert,

	EventCgmSessionStarted: ClassCgmSession,
	EventCgmSessionJoined:  ClassCgmSession,
	EventCgmSessionStopped: ClassCgmSession,

	EventCgmDataSample: ClassCgmReading,

	EventUserModeChange: ClassUserMode,

	EventDailyBasal: ClassDeviceStatus,
}

// Classify returns the semantic class of an event id. The second
// return is false for event types no class claims.
func Classify(id uint16) (Class, bool) {
	c, ok := classByEvent[id]
	return c, ok
}
