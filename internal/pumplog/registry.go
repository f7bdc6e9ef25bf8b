package pumplog

// Event type ids referenced elsewhere in the pipeline. The id space is
// 12 bits; ids not listed here either appear only in the descriptor
// table below or are unknown firmware types decoded raw-only.
const (
	EventTimeChanged       uint16 = 1
	EventDateChanged       uint16 = 2
	EventTempRateActivated uint16 = 3
	EventTempRateCompleted uint16 = 4
	EventBasalRateChange   uint16 = 11
	EventPumpingSuspended  uint16 = 12
	EventPumpingResumed    uint16 = 13
	EventTimeSynced        uint16 = 14
	EventBgReadingTaken    uint16 = 16
	EventNewDay            uint16 = 17
	EventCannulaFilled     uint16 = 21
	EventTubingFilled      uint16 = 22
	EventCartridgeFilled   uint16 = 24
	EventAlarmActivated    uint16 = 55
	EventAlarmCleared      uint16 = 56
	EventAlertActivated    uint16 = 57
	EventAlertCleared      uint16 = 58
	EventBolusCompleted    uint16 = 64
	EventBolexCompleted    uint16 = 65
	EventBolusRequestedMsg1 uint16 = 66
	EventBolusRequestedMsg2 uint16 = 67
	EventBolusRequestedMsg3 uint16 = 68
	EventBolexActivated    uint16 = 69
	EventBolusActivated    uint16 = 70
	EventDailyBasal        uint16 = 81
	EventCgmDataSample     uint16 = 90
	EventCgmCalibration    uint16 = 91
	EventCgmAlertActivated uint16 = 151
	EventCgmAlertCleared   uint16 = 152
	EventCgmSessionStarted uint16 = 160
	EventCgmSessionJoined  uint16 = 161
	EventCgmSessionStopped uint16 = 162
	EventUserModeChange    uint16 = 170
)

// Descriptor declares the payload layout of one event type.
type Descriptor struct {
	ID     uint16
	Name   string
	Fields []Field
}

// registry maps event id -> descriptor. Built once at init from the
// descriptor table; decode is a plain map lookup, no reflection.
var registry = make(map[uint16]*Descriptor, len(descriptors))

func init() {
	for i := range descriptors {
		registry[descriptors[i].ID] = &descriptors[i]
	}
}

// Lookup returns the descriptor for an event id, if registered.
func Lookup(id uint16) (*Descriptor, bool) {
	d, ok := registry[id]
	return d, ok
}

// descriptors is the static event-type registry. Offsets address the
// 16-byte payload after the record header; all multi-byte fields are
// big-endian.
var descriptors = []Descriptor{
	{ID: EventTimeChanged, Name: "TimeChanged", Fields: []Field{
		{Name: "timePrior", Offset: 0, Type: Uint32, Unit: "s"},
		{Name: "timeAfter", Offset: 4, Type: Uint32, Unit: "s"},
	}},
	{ID: EventDateChanged, Name: "DateChanged", Fields: []Field{
		{Name: "datePrior", Offset: 0, Type: Uint32},
		{Name: "dateAfter", Offset: 4, Type: Uint32},
	}},
	{ID: EventTempRateActivated, Name: "TempRateActivated", Fields: []Field{
		{Name: "percent", Offset: 0, Type: Float32, Unit: "%"},
		{Name: "duration", Offset: 4, Type: Float32, Unit: "min"},
	}},
	{ID: EventTempRateCompleted, Name: "TempRateCompleted", Fields: []Field{
		{Name: "timeLeft", Offset: 0, Type: Float32, Unit: "min"},
	}},
	{ID: 5, Name: "PumpingStarted"},
	{ID: 6, Name: "PumpingStopped"},
	{ID: EventBasalRateChange, Name: "BasalRateChange", Fields: []Field{
		{Name: "commandedRate", Offset: 0, Type: Float32, Unit: "u/hr"},
		{Name: "baseRate", Offset: 4, Type: Float32, Unit: "u/hr"},
		{Name: "maxRate", Offset: 8, Type: Float32, Unit: "u/hr"},
		{Name: "idp", Offset: 12, Type: Uint8},
		{Name: "changeType", Offset: 13, Type: Uint8, Derive: DeriveEnum, Enum: basalChangeTypes, EnumPrefix: "ChangeType"},
	}},
	{ID: EventPumpingSuspended, Name: "PumpingSuspended", Fields: []Field{
		{Name: "insulinAmount", Offset: 0, Type: Float32, Unit: "u"},
		{Name: "reason", Offset: 4, Type: Uint8, Derive: DeriveBitmask, Flags: suspensionReasonFlags},
	}},
	{ID: EventPumpingResumed, Name: "PumpingResumed", Fields: []Field{
		{Name: "insulinAmount", Offset: 0, Type: Float32, Unit: "u"},
	}},
	{ID: EventTimeSynced, Name: "TimeSynced", Fields: []Field{
		{Name: "rtcPrior", Offset: 0, Type: Uint32, Unit: "s"},
		{Name: "rtcAfter", Offset: 4, Type: Uint32, Unit: "s"},
	}},
	{ID: 15, Name: "PumpSettingsReset"},
	{ID: EventBgReadingTaken, Name: "BgReadingTaken", Fields: []Field{
		{Name: "bg", Offset: 0, Type: Uint16, Unit: "mg/dL"},
		{Name: "bgSource", Offset: 2, Type: Uint8, Derive: DeriveEnum, Enum: bgSources, EnumPrefix: "BgSource"},
		{Name: "iob", Offset: 4, Type: Float32, Unit: "u"},
	}},
	{ID: EventNewDay, Name: "NewDay", Fields: []Field{
		{Name: "commandedRate", Offset: 0, Type: Float32, Unit: "u/hr"},
	}},
	{ID: 18, Name: "ParamChangePump", Fields: []Field{
		{Name: "paramID", Offset: 0, Type: Uint16},
		{Name: "priorValue", Offset: 4, Type: Uint32},
		{Name: "newValue", Offset: 8, Type: Uint32},
	}},
	{ID: 19, Name: "ParamChangeReminder", Fields: []Field{
		{Name: "reminderID", Offset: 0, Type: Uint16},
		{Name: "priorStatus", Offset: 2, Type: Uint8},
		{Name: "newStatus", Offset: 3, Type: Uint8},
	}},
	{ID: EventCannulaFilled, Name: "CannulaFilled", Fields: []Field{
		{Name: "primeSize", Offset: 0, Type: Float32, Unit: "u"},
	}},
	{ID: EventTubingFilled, Name: "TubingFilled", Fields: []Field{
		{Name: "primeSize", Offset: 0, Type: Float32, Unit: "u"},
	}},
	{ID: 23, Name: "CartridgeRemoved"},
	{ID: EventCartridgeFilled, Name: "CartridgeFilled", Fields: []Field{
		{Name: "insulinDisplayed", Offset: 0, Type: Float32, Unit: "u"},
		{Name: "insulinActual", Offset: 4, Type: Float32, Unit: "u"},
	}},
	{ID: 25, Name: "CartridgeUpdated", Fields: []Field{
		{Name: "insulinRemaining", Offset: 0, Type: Float32, Unit: "u"},
	}},
	{ID: 26, Name: "UsbConnected"},
	{ID: 27, Name: "UsbDisconnected"},
	{ID: 28, Name: "UsbEnumerated"},
	{ID: 33, Name: "IdpActionChange", Fields: []Field{
		{Name: "idp", Offset: 0, Type: Uint8},
		{Name: "status", Offset: 1, Type: Uint8},
		{Name: "sourceIdp", Offset: 2, Type: Uint8},
	}},
	{ID: 34, Name: "IdpBolusSettings", Fields: []Field{
		{Name: "idp", Offset: 0, Type: Uint8},
		{Name: "insulinDurationRaw", Offset: 4, Type: Uint32, Unit: "min", Derive: DeriveRatio, Scale: 1.0 / 60.0},
	}},
	{ID: 35, Name: "IdpList", Fields: []Field{
		{Name: "numProfiles", Offset: 0, Type: Uint8},
	}},
	{ID: 36, Name: "IdpTimeDependentSegment", Fields: []Field{
		{Name: "idp", Offset: 0, Type: Uint8},
		{Name: "status", Offset: 1, Type: Uint8},
		{Name: "segmentIndex", Offset: 2, Type: Uint8},
		{Name: "basalRateRaw", Offset: 4, Type: Uint32, Unit: "u/hr", Derive: DeriveRatio, Scale: 0.001},
		{Name: "carbRatioRaw", Offset: 8, Type: Uint32, Unit: "g/u", Derive: DeriveRatio, Scale: 0.001},
		{Name: "isf", Offset: 12, Type: Uint16, Unit: "mg/dL/u"},
		{Name: "targetBg", Offset: 14, Type: Uint16, Unit: "mg/dL"},
	}},
	{ID: 37, Name: "Idp", Fields: []Field{
		{Name: "idp", Offset: 0, Type: Uint8},
		{Name: "op", Offset: 1, Type: Uint8},
	}},
	{ID: 41, Name: "FactoryReset"},
	{ID: 42, Name: "PumpShutdown", Fields: []Field{
		{Name: "insulinRemaining", Offset: 0, Type: Float32, Unit: "u"},
	}},
	{ID: 43, Name: "PumpRestart"},
	{ID: 44, Name: "LogCleared"},
	{ID: 45, Name: "SettingChanged", Fields: []Field{
		{Name: "settingID", Offset: 0, Type: Uint16},
		{Name: "priorValue", Offset: 4, Type: Uint32},
		{Name: "newValue", Offset: 8, Type: Uint32},
	}},
	{ID: 46, Name: "LanguageChanged", Fields: []Field{
		{Name: "language", Offset: 0, Type: Uint8},
	}},
	{ID: 47, Name: "ScreenTimeoutChanged", Fields: []Field{
		{Name: "timeout", Offset: 0, Type: Uint16, Unit: "s"},
	}},
	{ID: EventAlarmActivated, Name: "AlarmActivated", Fields: []Field{
		{Name: "alarmID", Offset: 0, Type: Uint32, Derive: DeriveDictionary, Dict: AlarmCodes, DictPrefix: "Alarm"},
	}},
	{ID: EventAlarmCleared, Name: "AlarmCleared", Fields: []Field{
		{Name: "alarmID", Offset: 0, Type: Uint32, Derive: DeriveDictionary, Dict: AlarmCodes, DictPrefix: "Alarm"},
	}},
	{ID: EventAlertActivated, Name: "AlertActivated", Fields: []Field{
		{Name: "alertID", Offset: 0, Type: Uint32, Derive: DeriveEnum, Enum: alertCodes, EnumPrefix: "Alert"},
	}},
	{ID: EventAlertCleared, Name: "AlertCleared", Fields: []Field{
		{Name: "alertID", Offset: 0, Type: Uint32, Derive: DeriveEnum, Enum: alertCodes, EnumPrefix: "Alert"},
	}},
	{ID: EventBolusCompleted, Name: "BolusCompleted", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "iob", Offset: 4, Type: Float32, Unit: "u"},
		{Name: "insulinDelivered", Offset: 8, Type: Float32, Unit: "u"},
		{Name: "insulinRequested", Offset: 12, Type: Float32, Unit: "u"},
	}},
	{ID: EventBolexCompleted, Name: "BolexCompleted", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "iob", Offset: 4, Type: Float32, Unit: "u"},
		{Name: "insulinDelivered", Offset: 8, Type: Float32, Unit: "u"},
		{Name: "insulinRequested", Offset: 12, Type: Float32, Unit: "u"},
	}},
	{ID: EventBolusRequestedMsg1, Name: "BolusRequestedMsg1", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "bolusType", Offset: 2, Type: Uint8, Derive: DeriveEnum, Enum: bolusTypes, EnumPrefix: "BolusType"},
		{Name: "correction", Offset: 3, Type: Uint8, Derive: DeriveEnum, Enum: yesNo, EnumPrefix: "Correction"},
		{Name: "carbAmount", Offset: 4, Type: Uint16, Unit: "g"},
		{Name: "bg", Offset: 6, Type: Uint16, Unit: "mg/dL"},
	}},
	{ID: EventBolusRequestedMsg2, Name: "BolusRequestedMsg2", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "options", Offset: 2, Type: Uint8, Derive: DeriveBitmask, Flags: bolusOptionFlags},
		{Name: "carbRatioRaw", Offset: 4, Type: Uint32, Unit: "g/u", Derive: DeriveRatio, Scale: 0.001},
	}},
	{ID: EventBolusRequestedMsg3, Name: "BolusRequestedMsg3", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "foodBolusSize", Offset: 4, Type: Float32, Unit: "u"},
		{Name: "correctionBolusSize", Offset: 8, Type: Float32, Unit: "u"},
		{Name: "totalBolusSize", Offset: 12, Type: Float32, Unit: "u"},
	}},
	{ID: EventBolexActivated, Name: "BolexActivated", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "duration", Offset: 4, Type: Float32, Unit: "min"},
	}},
	{ID: EventBolusActivated, Name: "BolusActivated", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "iob", Offset: 4, Type: Float32, Unit: "u"},
		{Name: "bolusSize", Offset: 8, Type: Float32, Unit: "u"},
	}},
	{ID: 71, Name: "BolusDelivered", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "insulinDelivered", Offset: 8, Type: Float32, Unit: "u"},
	}},
	{ID: 72, Name: "BolusCancelled", Fields: []Field{
		{Name: "bolusID", Offset: 0, Type: Uint16},
		{Name: "insulinDelivered", Offset: 8, Type: Float32, Unit: "u"},
	}},
	{ID: 80, Name: "DailyTotals", Fields: []Field{
		{Name: "totalInsulin", Offset: 0, Type: Float32, Unit: "u"},
		{Name: "totalBolus", Offset: 4, Type: Float32, Unit: "u"},
		{Name: "totalBasal", Offset: 8, Type: Float32, Unit: "u"},
	}},
	{ID: EventDailyBasal, Name: "DailyBasal", Fields: []Field{
		{Name: "dailyTotalBasal", Offset: 0, Type: Float32, Unit: "u"},
		{Name: "iob", Offset: 4, Type: Float32, Unit: "u"},
		{Name: "batteryMSB", Offset: 8, Type: Uint8},
		{Name: "batteryLSB", Offset: 9, Type: Uint8},
		{Name: "batteryCharge", Offset: 8, Type: Uint8, Derive: DeriveBatteryPercent, LSBOffset: 9},
		{Name: "lipoMv", Offset: 10, Type: Uint16, Unit: "V", Derive: DeriveRatio, Scale: 0.001},
	}},
	{ID: 82, Name: "ControlIQStateChange", Fields: []Field{
		{Name: "state", Offset: 0, Type: Uint8, Derive: DeriveEnum, Enum: controlIQStates, EnumPrefix: "ControlIQState"},
	}},
	{ID: 83, Name: "ControlIQBasalAdjustment", Fields: []Field{
		{Name: "basalRate", Offset: 0, Type: Float32, Unit: "u/hr"},
	}},
	{ID: 84, Name: "ControlIQAutoBolus", Fields: []Field{
		{Name: "bolusSize", Offset: 0, Type: Float32, Unit: "u"},
	}},
	{ID: EventCgmDataSample, Name: "CgmDataSample", Fields: []Field{
		{Name: "egv", Offset: 0, Type: Uint16, Unit: "mg/dL"},
		// backfilled readings carry the original capture time here,
		// separate from the record-write time in the header
		{Name: "egvTimestamp", Offset: 4, Type: Uint32, Unit: "s"},
		{Name: "trend", Offset: 8, Type: Uint8, Derive: DeriveEnum, Enum: trendDirections, EnumPrefix: "Trend"},
		{Name: "egvStatus", Offset: 9, Type: Uint8},
	}},
	{ID: EventCgmCalibration, Name: "CgmCalibration", Fields: []Field{
		{Name: "value", Offset: 0, Type: Uint16, Unit: "mg/dL"},
		{Name: "calTimestamp", Offset: 4, Type: Uint32, Unit: "s"},
	}},
	{ID: 92, Name: "CgmBackfillStart", Fields: []Field{
		{Name: "firstTimestamp", Offset: 0, Type: Uint32, Unit: "s"},
		{Name: "lastTimestamp", Offset: 4, Type: Uint32, Unit: "s"},
	}},
	{ID: 93, Name: "CgmBackfillEnd", Fields: []Field{
		{Name: "sampleCount", Offset: 0, Type: Uint16},
	}},
	{ID: 101, Name: "ChargerConnected"},
	{ID: 102, Name: "ChargerDisconnected"},
	{ID: 103, Name: "BatteryStatus", Fields: []Field{
		{Name: "remaining", Offset: 0, Type: Uint8, Unit: "%"},
	}},
	{ID: 110, Name: "OcclusionDetected", Fields: []Field{
		{Name: "occlusionType", Offset: 0, Type: Uint8, Derive: DeriveEnum, Enum: occlusionTypes, EnumPrefix: "Occlusion"},
	}},
	{ID: 111, Name: "OcclusionResolved"},
	{ID: 120, Name: "SiteReminderSet", Fields: []Field{
		{Name: "days", Offset: 0, Type: Uint8, Unit: "d"},
	}},
	{ID: 121, Name: "SiteReminderCleared"},
	{ID: 130, Name: "HypoMinimizerSuspend", Fields: []Field{
		{Name: "egv", Offset: 0, Type: Uint16, Unit: "mg/dL"},
	}},
	{ID: 131, Name: "HypoMinimizerResume", Fields: []Field{
		{Name: "egv", Offset: 0, Type: Uint16, Unit: "mg/dL"},
	}},
	{ID: 140, Name: "ReminderActivated", Fields: []Field{
		{Name: "reminderID", Offset: 0, Type: Uint16},
	}},
	{ID: 141, Name: "ReminderCleared", Fields: []Field{
		{Name: "reminderID", Offset: 0, Type: Uint16},
	}},
	{ID: EventCgmAlertActivated, Name: "CgmAlertActivated", Fields: []Field{
		{Name: "cgmAlertID", Offset: 0, Type: Uint8, Derive: DeriveEnum, Enum: cgmAlertCodes, EnumPrefix: "CgmAlert"},
		{Name: "vendor", Offset: 1, Type: Uint8, Derive: DeriveEnum, Enum: cgmVendors, EnumPrefix: "CgmVendor"},
		{Name: "egv", Offset: 2, Type: Uint16, Unit: "mg/dL"},
	}},
	{ID: EventCgmAlertCleared, Name: "CgmAlertCleared", Fields: []Field{
		{Name: "cgmAlertID", Offset: 0, Type: Uint8, Derive: DeriveEnum, Enum: cgmAlertCodes, EnumPrefix: "CgmAlert"},
		{Name: "vendor", Offset: 1, Type: Uint8, Derive: DeriveEnum, Enum: cgmVendors, EnumPrefix: "CgmVendor"},
	}},
	{ID: EventCgmSessionStarted, Name: "CgmSessionStarted", Fields: []Field{
		{Name: "transmitterID", Offset: 0, Type: Uint32},
		{Name: "interval", Offset: 4, Type: Uint8, Unit: "min"},
	}},
	{ID: EventCgmSessionJoined, Name: "CgmSessionJoined", Fields: []Field{
		{Name: "transmitterID", Offset: 0, Type: Uint32},
	}},
	{ID: EventCgmSessionStopped, Name: "CgmSessionStopped", Fields: []Field{
		{Name: "reason", Offset: 0, Type: Uint8, Derive: DeriveEnum, Enum: cgmStopReasons, EnumPrefix: "CgmStopReason"},
	}},
	{ID: 163, Name: "CgmTransmitterPaired", Fields: []Field{
		{Name: "transmitterID", Offset: 0, Type: Uint32},
	}},
	{ID: 164, Name: "CgmTransmitterUnpaired", Fields: []Field{
		{Name: "transmitterID", Offset: 0, Type: Uint32},
	}},
	{ID: EventUserModeChange, Name: "UserModeChange", Fields: []Field{
		{Name: "mode", Offset: 0, Type: Uint8, Derive: DeriveEnum, Enum: userModes, EnumPrefix: "UserMode"},
		{Name: "action", Offset: 1, Type: Uint8, Derive: DeriveEnum, Enum: userModeActions, EnumPrefix: "UserModeAction"},
	}},
	{ID: 171, Name: "UserModeScheduleChange", Fields: []Field{
		{Name: "mode", Offset: 0, Type: Uint8, Derive: DeriveEnum, Enum: userModes, EnumPrefix: "UserMode"},
		{Name: "enabled", Offset: 1, Type: Uint8, Derive: DeriveEnum, Enum: yesNo, EnumPrefix: "Enabled"},
	}},
	{ID: 180, Name: "ConnectionStatus", Fields: []Field{
		{Name: "connected", Offset: 0, Type: Uint8, Derive: DeriveEnum, Enum: yesNo, EnumPrefix: "Connected"},
	}},
	{ID: 181, Name: "CloudUploadStatus", Fields: []Field{
		{Name: "lastSeqUploaded", Offset: 0, Type: Uint32},
	}},
	{ID: 190, Name: "FirmwareUpdateStarted"},
	{ID: 191, Name: "FirmwareUpdateCompleted"},
	{ID: 192, Name: "SelfTestCompleted", Fields: []Field{
		{Name: "result", Offset: 0, Type: Uint8},
	}},
}
