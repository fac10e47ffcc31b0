package knowledge

import "github.com/medlens/medlens/internal/models"

// Entries returns the fixed reference knowledge base. It is embedded once at
// process start and never mutated.
func Entries() []models.KnowledgeEntry {
	return []models.KnowledgeEntry{
		{ID: "kb1", Text: "Low hemoglobin (Hb) may indicate anemia; common causes include iron deficiency, chronic disease, or blood loss. Symptoms: fatigue, pallor, shortness of breath."},
		{ID: "kb2", Text: "High white blood cell count (leukocytosis) may suggest infection, inflammation, leukemia, or stress response. Normal range: 4,000-11,000 cells/μL."},
		{ID: "kb3", Text: "Low platelet counts (thrombocytopenia) increase bleeding risk; causes include medications, infection, or immune conditions."},
		{ID: "kb6", Text: "High LDL cholesterol increases cardiovascular risk; lifestyle and lipid-lowering therapy may be indicated depending on level."},
		{ID: "kb7", Text: "Low HDL cholesterol (<40 mg/dL in men, <50 mg/dL in women) increases cardiovascular risk; exercise and niacin may help increase levels."},
		{ID: "kb8", Text: "High triglycerides (>150 mg/dL) associated with metabolic syndrome, diabetes, and pancreatitis risk. Dietary modification recommended."},
		{ID: "kb15", Text: "Elevated creatinine indicates decreased kidney function; normal varies by age, sex, and muscle mass. Used to calculate eGFR."},
		{ID: "kb23", Text: "Elevated HbA1c (>6.5%) indicates diabetes diagnosis; 5.7-6.4% suggests prediabetes. Target <7% for most diabetic patients."},
		{ID: "kb50", Text: "Normal menisci and ligaments indicate healthy joint structures with no tears or damage. This is a positive finding showing good joint stability."},
		{ID: "kb51", Text: "Osteochondral changes may indicate early arthritis or cartilage damage. When absent, it suggests healthy joint surfaces."},
		{ID: "kb52", Text: "Subchondral cystic changes can indicate joint degeneration or arthritis. These appear as fluid-filled spaces in the bone under cartilage."},
		{ID: "kb53", Text: "Chondromalacia patella is softening of cartilage behind the kneecap, often causing knee pain and stiffness."},
		{ID: "kb54", Text: "Joint effusion means fluid accumulation in the joint space, often due to injury, inflammation, or infection."},
		{ID: "kb55", Text: "Normal joint space indicates healthy cartilage thickness and no significant arthritis or joint degeneration."},
	}
}
