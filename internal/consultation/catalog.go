package consultation

// Diagnosis is the guidance shown for one symptom in the consultation room.
type Diagnosis struct {
	Symptom  string `json:"symptom"`
	Reason   string `json:"reason"`
	How      string `json:"how"`
	Medicine string `json:"medicine"`
}

// symptomsBySpeciality maps a doctor's speciality to the symptoms a patient
// can pick in the consultation room.
var symptomsBySpeciality = map[string][]string{
	"General Physician":  {"Fever", "Cold", "Body Ache", "Fatigue"},
	"Gynecologist":       {"Irregular periods", "Pelvic pain", "Pregnancy", "Menstrual cramps"},
	"Dermatologist":      {"Rashes", "Itching", "Acne", "Eczema"},
	"Pediatricians":      {"Cough", "Mild Fever", "Vaccination", "Ear Infection"},
	"Neurologist":        {"Headache", "Seizures", "Dizziness", "Memory Loss"},
	"Gastroenterologist": {"Stomach Pain", "Constipation", "Acidity", "Diarrhea"},
}

var diagnosisBySymptom = map[string]Diagnosis{
	"Fever": {
		Reason:   "Body's immune response to infection.",
		How:      "Caused by viruses or bacteria triggering inflammation.",
		Medicine: "Paracetamol 500mg, every 6 hours if fever persists.",
	},
	"Cold": {
		Reason:   "Viral upper respiratory infection.",
		How:      "Transmitted through air or contact with infected surfaces.",
		Medicine: "Antihistamines twice a day, steam inhalation morning/evening.",
	},
	"Body Ache": {
		Reason:   "Muscle fatigue or viral infection.",
		How:      "Due to inflammation or strain.",
		Medicine: "Ibuprofen 400mg after food, twice daily.",
	},
	"Fatigue": {
		Reason:   "Physical or mental exhaustion.",
		How:      "Due to lack of sleep, stress, or underlying illness.",
		Medicine: "Proper rest, hydration, and multivitamins.",
	},
	"Irregular periods": {
		Reason:   "Hormonal imbalance.",
		How:      "Stress, diet, or PCOS affecting hormone levels.",
		Medicine: "Consult for hormonal profile, possible oral contraceptives.",
	},
	"Pelvic pain": {
		Reason:   "Infection or reproductive issues.",
		How:      "Due to UTIs or ovarian cysts.",
		Medicine: "Antibiotics course, start after test confirmation.",
	},
	"Pregnancy": {
		Reason:   "Natural gestation process.",
		How:      "Conception leads to hormonal and physical changes.",
		Medicine: "Prenatal vitamins daily, ultrasound in 6 weeks.",
	},
	"Menstrual cramps": {
		Reason:   "Uterine muscle contractions.",
		How:      "Prostaglandins cause cramping during menstruation.",
		Medicine: "Mefenamic acid or ibuprofen during cramps.",
	},
	"Rashes": {
		Reason:   "Skin inflammation or allergy.",
		How:      "Allergic reaction or eczema.",
		Medicine: "Topical steroids, apply morning and night.",
	},
	"Itching": {
		Reason:   "Histamine release from allergens.",
		How:      "Body's immune response to irritants.",
		Medicine: "Antihistamines before bedtime.",
	},
	"Acne": {
		Reason:   "Excess oil and blocked pores.",
		How:      "Hormones and bacteria clog follicles.",
		Medicine: "Benzoyl peroxide gel at night, gentle cleanser twice daily.",
	},
	"Eczema": {
		Reason:   "Chronic skin condition.",
		How:      "Triggered by allergens or irritants.",
		Medicine: "Moisturizers frequently, topical corticosteroids as needed.",
	},
	"Cough": {
		Reason:   "Irritation in throat or lungs.",
		How:      "Due to infections or allergies.",
		Medicine: "Cough syrup thrice daily, warm fluids frequently.",
	},
	"Mild Fever": {
		Reason:   "Low-grade infection.",
		How:      "Similar to general fever, often viral.",
		Medicine: "Paracetamol every 8 hours if temp > 100F.",
	},
	"Vaccination": {
		Reason:   "Preventive immunization.",
		How:      "Stimulates immune memory against diseases.",
		Medicine: "Administered once; monitor for mild fever post-vaccine.",
	},
	"Ear Infection": {
		Reason:   "Bacterial or viral infection in middle ear.",
		How:      "Often follows a cold or flu in children.",
		Medicine: "Antibiotics if bacterial, pain relievers as needed.",
	},
	"Headache": {
		Reason:   "Stress, tension or migraine.",
		How:      "Muscle tension or neurotransmitter imbalance.",
		Medicine: "Paracetamol or ibuprofen, hydration important.",
	},
	"Seizures": {
		Reason:   "Sudden electrical activity in brain.",
		How:      "Neurological imbalance or epilepsy.",
		Medicine: "Anti-epileptic drugs prescribed post diagnosis.",
	},
	"Dizziness": {
		Reason:   "Low blood pressure or inner ear issues.",
		How:      "Affects balance and coordination.",
		Medicine: "Rest, fluids, and electrolyte solution.",
	},
	"Memory Loss": {
		Reason:   "Aging, trauma, or neurodegeneration.",
		How:      "Impairment in brain's ability to retrieve information.",
		Medicine: "Cognitive therapy and neuroprotective medication.",
	},
	"Stomach Pain": {
		Reason:   "Indigestion or gas.",
		How:      "Improper digestion or acidity buildup.",
		Medicine: "Antacid post-meal, light food for 3 days.",
	},
	"Constipation": {
		Reason:   "Lack of fiber or dehydration.",
		How:      "Slowed intestinal movement.",
		Medicine: "Fiber supplements and mild laxative at night.",
	},
	"Acidity": {
		Reason:   "Excess acid in stomach.",
		How:      "Spicy food, irregular meals increase acid.",
		Medicine: "Omeprazole daily before breakfast.",
	},
	"Diarrhea": {
		Reason:   "Infection or food intolerance.",
		How:      "Leads to rapid bowel movement and fluid loss.",
		Medicine: "ORS for hydration, probiotics, light meals.",
	},
}

// Symptoms returns the pickable symptoms for a speciality, or nil when the
// speciality has no consultation catalog.
func Symptoms(speciality string) []string {
	symptoms, ok := symptomsBySpeciality[speciality]
	if !ok {
		return nil
	}
	out := make([]string, len(symptoms))
	copy(out, symptoms)
	return out
}

// Diagnose returns the guidance for a symptom.
func Diagnose(symptom string) (Diagnosis, bool) {
	d, ok := diagnosisBySymptom[symptom]
	if !ok {
		return Diagnosis{}, false
	}
	d.Symptom = symptom
	return d, true
}
